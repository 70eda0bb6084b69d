package model

// TransactionStatus describes a transaction state reported by the payment provider.
type TransactionStatus string

const (
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusAbandoned TransactionStatus = "abandoned"
	TransactionStatusPending   TransactionStatus = "pending"
)

// Settled reports whether the provider considers the transaction final.
func (s TransactionStatus) Settled() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed || s == TransactionStatusAbandoned
}

// VerifiedTransaction is the provider's view of one transaction, as returned
// by the verify endpoint or carried in a webhook. Amount is in minor units.
type VerifiedTransaction struct {
	Reference string
	Status    TransactionStatus
	Channel   string
	Amount    int64
}

// PaymentChannel identifies which delivery path reported a transaction state.
type PaymentChannel string

const (
	ChannelVerify  PaymentChannel = "verify"
	ChannelWebhook PaymentChannel = "webhook"
	ChannelSweep   PaymentChannel = "sweep"
)

// CheckoutRequest carries everything the provider needs to open a
// transaction. Reference is our locally generated correlation id; PaymentID
// rides along as metadata so events can be traced back without a lookup.
type CheckoutRequest struct {
	Reference string
	Email     string
	Amount    int64
	Currency  string
	PaymentID int64
}

// ProviderHandoff is the provider's handle for an opened transaction. The
// student completes payment at AuthorizationURL; ProviderReference is the
// reconciliation key from that point on.
type ProviderHandoff struct {
	AuthorizationURL  string
	AccessCode        string
	ProviderReference string
}
