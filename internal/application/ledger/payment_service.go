package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crmhub/backend/internal/domain/identity"
	"github.com/crmhub/backend/internal/domain/ledger"
	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/logger"
)

// ChargeRequest asks the gateway to capture a card payment.
type ChargeRequest struct {
	SourceID       string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	AccessToken    string
	LocationID     string
}

// ChargeResult is the gateway's view of a captured payment.
type ChargeResult struct {
	ExternalPaymentID string
	Status            string
	CardBrand         string
	CardLast4         string
	ReceiptURL        string
}

// Gateway is the external payment processor collaborator.
type Gateway interface {
	// Charge captures a card payment. A non-nil error means nothing
	// was charged.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// RevokeToken invalidates a merchant access token.
	RevokeToken(ctx context.Context, accessToken string) error
}

// CreatePaymentInput records a sale settled through a payment.
type CreatePaymentInput struct {
	Items          []LineItemInput
	Total          *decimal.Decimal
	SourceID       string
	Currency       string
	IdempotencyKey string
	Notes          string
}

// ConnectGatewayInput carries the OAuth callback values.
type ConnectGatewayInput struct {
	MerchantID   string
	AccessToken  string
	RefreshToken string
	LocationID   string
}

// ConnectionStatus reports whether a tenant can take card payments.
type ConnectionStatus struct {
	Connected   bool   `json:"connected"`
	MerchantID  string `json:"merchant_id,omitempty"`
	LocationID  string `json:"location_id,omitempty"`
	ConnectedAt string `json:"connected_at,omitempty"`
}

// PaymentService settles sales through the payment gateway and applies
// gateway status webhooks.
type PaymentService struct {
	payments    ledger.PaymentRepository
	writer      ledger.Writer
	connections identity.GatewayConnectionRepository
	tenants     identity.TenantRepository
	gateway     Gateway
}

// NewPaymentService creates the payment service.
func NewPaymentService(
	payments ledger.PaymentRepository,
	writer ledger.Writer,
	connections identity.GatewayConnectionRepository,
	tenants identity.TenantRepository,
	gateway Gateway,
) *PaymentService {
	return &PaymentService{
		payments:    payments,
		writer:      writer,
		connections: connections,
		tenants:     tenants,
		gateway:     gateway,
	}
}

// CreatePayment records a sale settled by payment. Card payments are
// charged through the gateway before anything is written locally, so a
// declined charge leaves the store untouched. The reverse failure mode
// is accepted: when the charge succeeds but the local write fails (for
// example on insufficient stock), the external charge is surfaced in
// the error and NOT auto-reversed.
func (s *PaymentService) CreatePayment(ctx context.Context, tenantID string, input CreatePaymentInput) (*ledger.Transaction, *ledger.Payment, error) {
	conn, err := s.connections.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrGatewayNotConnected
		}
		return nil, nil, err
	}

	sourceType, method := classifySource(input.SourceID)

	txn, err := buildTransaction(RecordSaleInput{
		Items:          input.Items,
		PaymentMethod:  string(method),
		Total:          input.Total,
		IdempotencyKey: input.IdempotencyKey,
		Notes:          input.Notes,
	})
	if err != nil {
		return nil, nil, err
	}

	var externalID string
	var result *ChargeResult
	if sourceType == ledger.SourceTypeCash {
		// no external call for cash, but the payment record still gets
		// a unique external id so the webhook index stays total
		externalID = "cash_" + shared.NewID()
	} else {
		result, err = s.gateway.Charge(ctx, ChargeRequest{
			SourceID:       input.SourceID,
			Amount:         txn.Total,
			Currency:       input.Currency,
			IdempotencyKey: input.IdempotencyKey,
			AccessToken:    conn.AccessToken,
			LocationID:     conn.LocationID,
		})
		if err != nil {
			return nil, nil, shared.NewExternalServiceError("payment gateway", err.Error())
		}
		externalID = result.ExternalPaymentID
	}
	txn.ExternalPaymentID = externalID

	status := ledger.PaymentStatusPending
	if result != nil {
		status = ledger.MapExternalStatus(result.Status)
	} else if sourceType == ledger.SourceTypeCash {
		status = ledger.PaymentStatusCompleted
	}

	payment, err := ledger.NewPayment(txn.ID, externalID, txn.Total, input.Currency, status, sourceType)
	if err != nil {
		return nil, nil, err
	}
	if result != nil {
		payment.CardBrand = result.CardBrand
		payment.CardLast4 = result.CardLast4
		payment.ReceiptURL = result.ReceiptURL
	}

	if err := s.writer.Commit(ctx, tenantID, txn, payment); err != nil {
		return nil, nil, mapCommitErr(err)
	}
	return txn, payment, nil
}

// ApplyPaymentStatusEvent applies a gateway status webhook. Unknown
// external ids are acknowledged as a no-op so the gateway stops
// retrying events for payments that were never recorded here.
func (s *PaymentService) ApplyPaymentStatusEvent(ctx context.Context, externalPaymentID, externalStatus string) error {
	payment, tenantID, err := s.payments.FindByExternalID(ctx, externalPaymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Info("payment status event for unknown payment",
				zap.String("external_payment_id", externalPaymentID))
			return nil
		}
		return err
	}

	status := ledger.MapExternalStatus(externalStatus)
	if payment.Status == status {
		return nil
	}
	return s.payments.UpdateStatus(ctx, tenantID, payment.ID, status)
}

// ConnectGateway stores the connection from a completed OAuth exchange
// and flags the tenant as payment-enabled. The flag update is
// best-effort.
func (s *PaymentService) ConnectGateway(ctx context.Context, tenantID string, input ConnectGatewayInput) (*identity.GatewayConnection, error) {
	conn, err := identity.NewGatewayConnection(tenantID, input.MerchantID, input.AccessToken)
	if err != nil {
		return nil, err
	}
	conn.RefreshToken = input.RefreshToken
	conn.LocationID = input.LocationID

	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}

	if _, err := s.tenants.UpdateSettings(ctx, tenantID, map[string]any{"payments_connected": true}); err != nil {
		logger.L(ctx).Warn("failed to flag tenant as payment-connected", zap.Error(err))
	}
	return conn, nil
}

// GatewayStatus reports the tenant's connection state.
func (s *PaymentService) GatewayStatus(ctx context.Context, tenantID string) (*ConnectionStatus, error) {
	conn, err := s.connections.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ConnectionStatus{Connected: false}, nil
		}
		return nil, err
	}
	return &ConnectionStatus{
		Connected:   true,
		MerchantID:  conn.MerchantID,
		LocationID:  conn.LocationID,
		ConnectedAt: conn.ConnectedAt,
	}, nil
}

// DisconnectGateway removes the connection. Token revocation at the
// gateway is best-effort; a failed revocation still disconnects.
func (s *PaymentService) DisconnectGateway(ctx context.Context, tenantID string) error {
	conn, err := s.connections.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := s.gateway.RevokeToken(ctx, conn.AccessToken); err != nil {
		logger.L(ctx).Warn("gateway token revocation failed", zap.Error(err))
	}

	if err := s.connections.Delete(ctx, tenantID); err != nil {
		return err
	}
	if _, err := s.tenants.UpdateSettings(ctx, tenantID, map[string]any{"payments_connected": false}); err != nil {
		logger.L(ctx).Warn("failed to clear tenant payment-connected flag", zap.Error(err))
	}
	return nil
}

// classifySource infers how the payment was captured from the source
// token. Online card nonces are prefixed "cnon:".
func classifySource(sourceID string) (ledger.SourceType, ledger.PaymentMethod) {
	switch {
	case sourceID == "" || strings.EqualFold(sourceID, "cash"):
		return ledger.SourceTypeCash, ledger.PaymentMethodCash
	case strings.HasPrefix(sourceID, "cnon:"):
		return ledger.SourceTypeCardOnline, ledger.PaymentMethodCardOnline
	default:
		return ledger.SourceTypeCardPresent, ledger.PaymentMethodCard
	}
}
