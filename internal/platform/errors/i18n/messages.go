package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown              = "UNKNOWN"
	CodeBookingInvalidInput  = "BOOKING_INVALID_INPUT"
	CodeBookingInvalidRating = "BOOKING_INVALID_RATING"
	CodeBookingInvalidState  = "BOOKING_INVALID_STATE"
	CodeBookingAlreadyRated  = "BOOKING_ALREADY_RATED"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodePersistence          = "PERSISTENCE_ERROR"
	CodePersistenceConflict  = "PERSISTENCE_CONFLICT"
)

var enUS = map[Code]string{
	CodeUnknown:              "Something went wrong. Please try again.",
	CodeBookingInvalidInput:  "{{if .field}}Check the {{.field}} field and try again.{{else}}The booking details are invalid.{{end}}",
	CodeBookingInvalidRating: "Ratings must be between 1 and 5 stars.",
	CodeBookingInvalidState:  "This booking is {{term \"status\" .status}}, so it cannot be {{term \"operation\" .operation}} right now.",
	CodeBookingAlreadyRated:  "You have already rated this booking. Ratings cannot be changed.",
	CodeNotFound:             "We could not find that booking.",
	CodeAlreadyExists:        "That booking already exists.",
	CodePersistence:          "We could not save your change. Please try again shortly.",
	CodePersistenceConflict:  "This booking was updated at the same time by someone else. Please try again.",
}

var ptBR = map[Code]string{
	CodeUnknown:              "Algo deu errado. Tente novamente.",
	CodeBookingInvalidInput:  "{{if .field}}Verifique o campo {{.field}} e tente novamente.{{else}}Os dados da reserva são inválidos.{{end}}",
	CodeBookingInvalidRating: "As avaliações devem ter entre 1 e 5 estrelas.",
	CodeBookingInvalidState:  "Esta reserva está {{term \"status\" .status}} e não pode ser {{term \"operation\" .operation}} agora.",
	CodeBookingAlreadyRated:  "Você já avaliou esta reserva. Avaliações não podem ser alteradas.",
	CodeNotFound:             "Não encontramos essa reserva.",
	CodeAlreadyExists:        "Essa reserva já existe.",
	CodePersistence:          "Não foi possível salvar sua alteração. Tente novamente em instantes.",
	CodePersistenceConflict:  "Esta reserva foi alterada ao mesmo tempo por outra pessoa. Tente novamente.",
}

// ptBRTerms translates the booking status and operation words carried in
// BOOKING_INVALID_STATE metadata. Operations are the past participle agreeing
// with "reserva".
var ptBRTerms = map[string]string{
	"status.pending":      "pendente",
	"status.accepted":     "aceita",
	"status.escrowed":     "em custódia",
	"status.completed":    "concluída",
	"status.disputed":     "em disputa",
	"status.mediation":    "em mediação",
	"status.cancelled":    "cancelada",
	"operation.accepted":  "aceita",
	"operation.escrowed":  "colocada em custódia",
	"operation.cancelled": "cancelada",
	"operation.confirmed": "confirmada",
	"operation.disputed":  "contestada",
	"operation.rated":     "avaliada",
}
