package domain

// Status is the canonical payment status vocabulary, independent of any
// single gateway's status strings.
type Status string

const (
	StatusPending     Status = "pending"
	StatusPixCreated  Status = "pix_created"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusRefunded    Status = "refunded"
	StatusChargedBack Status = "charged_back"
)

// Gateway names accepted by the registry. A product's Gateway field holds
// one of these.
const (
	GatewayMercadoPago = "mercadopago"
	GatewayPushinPay   = "pushinpay"
	GatewayEfi         = "efi"
)

// statusTables maps each gateway's status vocabulary to the canonical one.
// This is the single place the mapping is defined: the synchronous checkout
// flow and the webhook ingestion path both resolve statuses through it.
var statusTables = map[string]map[string]Status{
	GatewayMercadoPago: {
		"pending":      StatusPending,
		"in_process":   StatusPending,
		"in_mediation": StatusPending,
		"authorized":   StatusPending,
		"approved":     StatusApproved,
		"rejected":     StatusRejected,
		"cancelled":    StatusCancelled,
		"refunded":     StatusRefunded,
		"charged_back": StatusChargedBack,
	},
	GatewayPushinPay: {
		"created":  StatusPixCreated,
		"pending":  StatusPending,
		"paid":     StatusApproved,
		"expired":  StatusCancelled,
		"canceled": StatusCancelled,
		"refunded": StatusRefunded,
	},
	GatewayEfi: {
		"ATIVA":                           StatusPixCreated,
		"CONCLUIDA":                       StatusApproved,
		"REMOVIDA_PELO_USUARIO_RECEBEDOR": StatusCancelled,
		"REMOVIDA_PELO_PSP":               StatusCancelled,
		"DEVOLVIDO":                       StatusRefunded,
	},
}

// NormalizeStatus translates a provider status string into the canonical
// vocabulary. Unknown gateways and unmapped provider strings normalize to
// StatusPending so an unrecognized intermediate state never corrupts a sale
// or crashes the ingestion path.
func NormalizeStatus(gateway, providerStatus string) Status {
	table, ok := statusTables[gateway]
	if !ok {
		return StatusPending
	}
	status, ok := table[providerStatus]
	if !ok {
		return StatusPending
	}
	return status
}
