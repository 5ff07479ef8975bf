package businessflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

const maxDescriptionLength = 500

// LedgerFlow is the only writer of balance changes. Balances are never stored;
// every read folds the trader's transactions.
type LedgerFlow interface {
	Append(ctx context.Context, traderKey string, req *dto.AppendTransactionRequest, metadata *ClientMetadata) (*dto.AppendTransactionResponse, error)
	BalanceOf(ctx context.Context, traderKey string) (*dto.BalanceResponse, error)
	// ListFor returns most-recent-first history; limit 0 means the full history
	ListFor(ctx context.Context, traderKey string, limit int) (*dto.ListTransactionsResponse, error)
	ExportHistory(ctx context.Context, traderKey string) (filename string, content []byte, err error)
}

type LedgerFlowImpl struct {
	traderRepo  repository.TraderRepository
	txRepo      repository.TransactionRepository
	audit       auditRecorder
	sink        services.NotificationSink
	idempotency IdempotencyStore
	cfg         config.LedgerConfig
	tracer      trace.Tracer
}

// NewLedgerFlow creates a ledger flow. idempotency may be nil, in which case
// idempotency keys are ignored.
func NewLedgerFlow(
	traderRepo repository.TraderRepository,
	txRepo repository.TransactionRepository,
	auditRepo repository.AuditLogRepository,
	sink services.NotificationSink,
	idempotency IdempotencyStore,
	cfg config.LedgerConfig,
) LedgerFlow {
	if sink == nil {
		sink = services.NoopNotificationSink{}
	}
	if cfg.Currency == "" {
		cfg.Currency = utils.DefaultCurrency
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &LedgerFlowImpl{
		traderRepo:  traderRepo,
		txRepo:      txRepo,
		audit:       auditRecorder{repo: auditRepo},
		sink:        sink,
		idempotency: idempotency,
		cfg:         cfg,
		tracer:      otel.Tracer("hotspot-ledger/ledger"),
	}
}

func (f *LedgerFlowImpl) Append(ctx context.Context, traderKey string, req *dto.AppendTransactionRequest, metadata *ClientMetadata) (result *dto.AppendTransactionResponse, err error) {
	ctx, span := f.tracer.Start(ctx, "ledger.append", trace.WithAttributes(
		attribute.String("trader.key", traderKey),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "append failed")
		}
		span.End()
	}()

	if req == nil {
		return nil, NewBusinessError("LEDGER_APPEND_VALIDATION_FAILED", "Append request is required", ErrInvalidTransactionKind)
	}
	kind := models.TransactionKind(strings.TrimSpace(req.Kind))
	if !kind.Valid() {
		return nil, NewBusinessError("INVALID_TRANSACTION_KIND", "Transaction kind is invalid", ErrInvalidTransactionKind)
	}
	amountMinor, err := utils.ToMinorUnits(req.Amount)
	if err != nil {
		if errors.Is(err, utils.ErrAmountTooLarge) {
			return nil, NewBusinessError("AMOUNT_TOO_LARGE", "Amount is too large", ErrAmountTooLarge)
		}
		return nil, NewBusinessError("INVALID_AMOUNT", "Amount must be a finite value greater than or equal to zero", ErrInvalidAmount)
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, NewBusinessError("DESCRIPTION_TOO_LONG", "Description is too long", ErrDescriptionTooLong)
	}

	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		if IsTraderNotFound(err) {
			// appending to an unknown trader is a caller error
			return nil, NewBusinessError("TRADER_NOT_FOUND", "Trader does not exist", fmt.Errorf("%w: %w", ErrValidation, ErrTraderNotFound))
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tx.kind", string(kind)),
		attribute.Int64("tx.amount_minor", amountMinor),
	)

	idemKey := strings.TrimSpace(req.IdempotencyKey)
	if idemKey != "" && f.idempotency != nil {
		var replay *dto.AppendTransactionResponse
		var reserved bool
		replay, reserved, err = f.reserveIdempotencyKey(ctx, trader, idemKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			span.AddEvent("ledger.replayed")
			return replay, nil
		}
		if reserved {
			defer func() {
				if err != nil {
					if relErr := f.idempotency.Release(context.Background(), idemKey); relErr != nil {
						log.Printf("ledger: failed to release idempotency key %s: %v", idemKey, relErr)
					}
				}
			}()
		}
	}

	tx := &models.Transaction{
		TraderID:    trader.ID,
		Kind:        kind,
		AmountMinor: amountMinor,
		Currency:    f.cfg.Currency,
		Description: description,
		CreatedAt:   utils.UTCNow(),
	}
	if idemKey != "" {
		tx.IdempotencyKey = &idemKey
	}

	if err := f.txRepo.Save(ctx, tx); err != nil {
		f.audit.record(ctx, metadata, &trader.ID, models.AuditActionTransactionAppended,
			fmt.Sprintf("%s of %s failed", kind, utils.FormatMinor(amountMinor)), err, nil)
		return nil, persistenceError("LEDGER_APPEND_FAILED", "Failed to append transaction", err)
	}
	span.AddEvent("ledger.appended", trace.WithAttributes(attribute.String("tx.uuid", tx.UUID.String())))

	if idemKey != "" && f.idempotency != nil {
		if err := f.idempotency.Complete(ctx, idemKey, tx.UUID.String(), f.cfg.IdempotencyTTL); err != nil {
			log.Printf("ledger: failed to complete idempotency key %s: %v", idemKey, err)
		}
	}

	f.audit.record(ctx, metadata, &trader.ID, models.AuditActionTransactionAppended,
		fmt.Sprintf("%s of %s", kind, utils.FormatMinor(amountMinor)), nil,
		map[string]any{"transaction_uuid": tx.UUID.String()})

	// the append is durable from here on; notification is best-effort
	go f.notify(trader.ID, trader.Phone, kind, amountMinor)

	return &dto.AppendTransactionResponse{Transaction: ToTransactionDTO(*tx, trader.Phone)}, nil
}

// reserveIdempotencyKey returns a replayed response when key already produced a transaction
func (f *LedgerFlowImpl) reserveIdempotencyKey(ctx context.Context, trader *models.Trader, key string) (*dto.AppendTransactionResponse, bool, error) {
	ok, err := f.idempotency.Reserve(ctx, key, f.cfg.IdempotencyTTL)
	if err != nil {
		// without the store the key cannot be honoured; append anyway
		log.Printf("ledger: idempotency store unavailable: %v", err)
		return nil, false, nil
	}
	if ok {
		return nil, true, nil
	}

	value, found, err := f.idempotency.Lookup(ctx, key)
	if err != nil {
		log.Printf("ledger: idempotency lookup failed: %v", err)
		return nil, false, nil
	}
	if !found || value == idempotencyPending {
		return nil, false, NewBusinessError("APPEND_IN_PROGRESS", "An append with this idempotency key is in progress", ErrAppendInProgress)
	}

	existing, err := f.txRepo.ByUUID(ctx, value)
	if err != nil {
		return nil, false, persistenceError("LEDGER_LOOKUP_FAILED", "Failed to lookup transaction", err)
	}
	if existing == nil {
		return nil, false, NewBusinessError("APPEND_IN_PROGRESS", "An append with this idempotency key is in progress", ErrAppendInProgress)
	}
	if existing.TraderID != trader.ID {
		return nil, false, NewBusinessError("IDEMPOTENCY_KEY_REUSED", "Idempotency key was used for another trader", ErrIdempotencyKeyReused)
	}
	return &dto.AppendTransactionResponse{
		Transaction: ToTransactionDTO(*existing, trader.Phone),
		Replayed:    true,
	}, false, nil
}

// notify recomputes the balance from the ledger and sends it to the trader.
// It runs detached from the request and never reports failure to the caller.
func (f *LedgerFlowImpl) notify(traderID uint, phone string, kind models.TransactionKind, amountMinor int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ledger: notification panic for trader %d: %v", traderID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.NotifyTimeout)
	defer cancel()

	balance, _, err := f.fold(ctx, traderID)
	if err != nil {
		log.Printf("ledger: skipping notification for trader %d: %v", traderID, err)
		return
	}
	if !f.sink.Send(ctx, phone, FormatBalanceNotification(kind, amountMinor, balance)) {
		log.Printf("ledger: notification to trader %d was not delivered", traderID)
	}
}

// FormatBalanceNotification renders the message sent after an append
func FormatBalanceNotification(kind models.TransactionKind, amountMinor, balanceMinor int64) string {
	switch kind {
	case models.TransactionKindVoucherPurchase:
		return fmt.Sprintf("Voucher purchase of %s. New balance: %s", utils.FormatMinor(amountMinor), utils.FormatMinor(balanceMinor))
	default:
		return fmt.Sprintf("Credit of %s added. New balance: %s", utils.FormatMinor(amountMinor), utils.FormatMinor(balanceMinor))
	}
}

func (f *LedgerFlowImpl) BalanceOf(ctx context.Context, traderKey string) (*dto.BalanceResponse, error) {
	ctx, span := f.tracer.Start(ctx, "ledger.balance_of", trace.WithAttributes(
		attribute.String("trader.key", traderKey),
	))
	defer span.End()

	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	balance, count, err := f.fold(ctx, trader.ID)
	if err != nil {
		span.RecordError(err)
		return nil, persistenceError("LEDGER_BALANCE_FAILED", "Failed to compute balance", err)
	}
	span.SetAttributes(attribute.Int("transactions.folded", count))

	return &dto.BalanceResponse{
		TraderPhone:  trader.Phone,
		Balance:      utils.FromMinorUnits(balance),
		BalanceMinor: balance,
		Formatted:    utils.FormatMinor(balance),
		Currency:     f.cfg.Currency,
	}, nil
}

func (f *LedgerFlowImpl) fold(ctx context.Context, traderID uint) (int64, int, error) {
	txs, err := f.txRepo.ListByTraderAscending(ctx, traderID)
	if err != nil {
		return 0, 0, err
	}
	return FoldBalance(txs), len(txs), nil
}

// FoldBalance adds credit_add and subtracts voucher_purchase magnitudes.
// The sign comes from the kind only; stored negatives are folded by magnitude.
func FoldBalance(txs []*models.Transaction) int64 {
	var balance int64
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		switch tx.Kind {
		case models.TransactionKindCreditAdd:
			balance += utils.AbsMinor(tx.AmountMinor)
		case models.TransactionKindVoucherPurchase:
			balance -= utils.AbsMinor(tx.AmountMinor)
		}
	}
	return balance
}

func (f *LedgerFlowImpl) ListFor(ctx context.Context, traderKey string, limit int) (*dto.ListTransactionsResponse, error) {
	ctx, span := f.tracer.Start(ctx, "ledger.list_for", trace.WithAttributes(
		attribute.String("trader.key", traderKey),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit < 0 {
		return nil, NewBusinessError("INVALID_LIMIT", "Limit must be positive", ErrInvalidLimit)
	}
	if f.cfg.ListMaxLimit > 0 && limit > f.cfg.ListMaxLimit {
		limit = f.cfg.ListMaxLimit
	}

	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	txs, err := f.txRepo.ListByTraderRecent(ctx, trader.ID, limit)
	if err != nil {
		return nil, persistenceError("LEDGER_LIST_FAILED", "Failed to list transactions", err)
	}

	items := make([]dto.TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		items = append(items, ToTransactionDTO(*tx, trader.Phone))
	}
	return &dto.ListTransactionsResponse{Items: items, Count: len(items)}, nil
}

func (f *LedgerFlowImpl) ExportHistory(ctx context.Context, traderKey string) (string, []byte, error) {
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return "", nil, err
	}
	txs, err := f.txRepo.ListByTraderAscending(ctx, trader.ID)
	if err != nil {
		return "", nil, persistenceError("LEDGER_LIST_FAILED", "Failed to list transactions", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "transactions"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	header := []string{"id", "uuid", "kind", "amount", "description", "created_at", "running_balance"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	var running int64
	for i, tx := range txs {
		running = FoldBalance([]*models.Transaction{tx}) + running
		record := []any{
			tx.ID,
			tx.UUID.String(),
			string(tx.Kind),
			utils.FormatMinor(utils.AbsMinor(tx.AmountMinor)),
			tx.Description,
			formatTime(tx.CreatedAt),
			utils.FormatMinor(running),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
			return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := "transactions_" + sanitizeFilename(trader.Phone) + "_" + strconv.FormatInt(utils.UTCNow().Unix(), 10) + ".xlsx"
	return filename, buf.Bytes(), nil
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return '_'
	}, s)
}
