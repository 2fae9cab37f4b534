package core

// statusLabels maps server status codes to dashboard labels. Both the legacy
// server spellings and the normalized ones resolve to the same label.
var statusLabels = map[Status]string{
	StatusWaitingCommitment:  "Aguardando Empenho",
	StatusPartiallyCommitted: "Parcialmente Empenhada",
	StatusWaitingPayment:     "Aguardando Pagamento",
	StatusPartiallyPaid:      "Parcialmente Paga",
	StatusPaid:               "Paga",
	"PARTIALLY_COMMITTED":    "Parcialmente Empenhada",
	"PARTIALLY_PAID":         "Parcialmente Paga",
}

var typeLabels = map[ExpenseType]string{
	TypeBuildingWork: "Obra de Edificação",
	TypeRoadWork:     "Obra de Rodovias",
	TypeOther:        "Outros",
}

// TranslateStatus maps a status code to its display label. Total: codes this
// build does not know yet pass through unchanged, so new server statuses
// degrade to their raw code instead of an empty cell.
func TranslateStatus(status Status) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// TranslateType maps an expense type code to its display label, with the
// same pass-through fallback as TranslateStatus.
func TranslateType(t ExpenseType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}
