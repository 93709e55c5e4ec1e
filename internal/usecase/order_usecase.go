package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tabib_ai/internal/clock"
	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/domain/pricing"
	"tabib_ai/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrInvalidPatientName          = errors.New("invalid patient name")
	ErrInvalidComplaint            = errors.New("invalid complaint")
	ErrInvalidOrderID              = errors.New("invalid order id")
	ErrInvalidOrderStatus          = errors.New("invalid order status")
	ErrInvalidMessage              = errors.New("invalid message")
	ErrOrderNotFound               = errors.New("order not found")
	ErrUpstream                    = errors.New("upstream service failure")
	ErrRecipeProviderNotConfigured = errors.New("recipe provider not configured")
	ErrPaymentUseCaseNotConfigured = errors.New("payment flow not configured")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderSettings carries the business knobs of the submission flow.
type OrderSettings struct {
	Pricing pricing.Policy
	// RejectUnparsedRecipe fails a submission whose model reply holds no JSON recipe.
	// When false the order is priced as an empty recipe (system fee only).
	RejectUnparsedRecipe bool
}

type SubmitInput struct {
	Name           string
	Complaint      string
	RequestPayment bool
}

type SubmitResult struct {
	Order   entities.Order
	Payment *entities.PaymentLink
}

// IOrderUseCase exposes the consultation order lifecycle.
//
//   - Submit: complaint -> recipe -> price -> order in "proses" (+ optional payment link)
//   - Complete / CompleteByPatient: "proses" -> "done" (timer or device signal)
//   - StatusOf: latest order of a patient

type IOrderUseCase interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)
	Create(ctx context.Context, name, complaint string, recipe entities.Recipe, price *entities.PriceBreakdown) (entities.Order, error)
	Complete(ctx context.Context, orderID string) (entities.Order, error)
	CompleteByPatient(ctx context.Context, name string) (entities.Order, error)
	StatusOf(ctx context.Context, name string) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	ListByStatus(ctx context.Context, status entities.OrderStatus, limit int) ([]entities.Order, error)
	Quote(recipe entities.Recipe) entities.PriceBreakdown
	Ask(ctx context.Context, message string) (string, error)
}

type OrderUseCase struct {
	repo      interfaces.IOrderRepository
	recipes   interfaces.IRecipeProvider
	scheduler interfaces.ICompletionScheduler
	notifier  interfaces.IOrderNotifier
	payments  IPaymentUseCase
	clock     clock.Clock
	settings  OrderSettings
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

func NewOrderUseCase(
	repo interfaces.IOrderRepository,
	recipes interfaces.IRecipeProvider,
	scheduler interfaces.ICompletionScheduler,
	notifier interfaces.IOrderNotifier,
	payments IPaymentUseCase,
	clk clock.Clock,
	settings OrderSettings,
) *OrderUseCase {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &OrderUseCase{
		repo:      repo,
		recipes:   recipes,
		scheduler: scheduler,
		notifier:  notifier,
		payments:  payments,
		clock:     clk,
		settings:  settings,
	}
}

func (u *OrderUseCase) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	name := strings.TrimSpace(in.Name)
	complaint := strings.TrimSpace(in.Complaint)
	log.Printf("[order][usecase] submit start name=%q complaint_len=%d request_payment=%t", name, len(complaint), in.RequestPayment)
	if name == "" {
		return SubmitResult{}, ErrInvalidPatientName
	}
	if complaint == "" {
		return SubmitResult{}, ErrInvalidComplaint
	}
	if u.recipes == nil {
		log.Printf("[order][usecase] recipe provider not configured")
		return SubmitResult{}, ErrRecipeProviderNotConfigured
	}
	if in.RequestPayment && u.payments == nil {
		return SubmitResult{}, ErrPaymentUseCaseNotConfigured
	}

	reply, err := u.recipes.Ask(ctx, buildRecipePrompt(name, complaint))
	if err != nil {
		log.Printf("[order][usecase] recipe provider failed name=%q err=%v", name, err)
		return SubmitResult{}, upstream(err)
	}

	recipe, err := entities.ParseRecipe(reply)
	if err != nil {
		if u.settings.RejectUnparsedRecipe {
			log.Printf("[order][usecase] recipe rejected name=%q reply_len=%d", name, len(reply))
			return SubmitResult{}, err
		}
		log.Printf("[order][usecase] recipe unparsable, pricing empty recipe name=%q reply_len=%d", name, len(reply))
		recipe = entities.Recipe{}
	}

	price := pricing.Compute(recipe, u.settings.Pricing)
	order, err := u.Create(ctx, name, complaint, recipe, &price)
	if err != nil {
		return SubmitResult{}, err
	}
	result := SubmitResult{Order: order}

	if in.RequestPayment {
		withLink, err := u.payments.RequestPayment(ctx, order.ID)
		if err != nil {
			log.Printf("[order][usecase] payment request failed order_id=%s err=%v", order.ID, err)
			return result, err
		}
		link := withLink.PaymentLink()
		result.Order = withLink
		result.Payment = &link
	}
	log.Printf("[order][usecase] submit success order_id=%s status=%s total=%d", result.Order.ID, result.Order.Status, result.Order.Total())
	return result, nil
}

func (u *OrderUseCase) Create(ctx context.Context, name, complaint string, recipe entities.Recipe, price *entities.PriceBreakdown) (entities.Order, error) {
	name = strings.TrimSpace(name)
	complaint = strings.TrimSpace(complaint)
	if name == "" {
		return entities.Order{}, ErrInvalidPatientName
	}
	if complaint == "" {
		return entities.Order{}, ErrInvalidComplaint
	}

	now := u.clock.Now()
	o := entities.Order{
		ID:          uuid.NewString(),
		PatientName: name,
		PatientKey:  entities.NormalizePatientName(name),
		Complaint:   complaint,
		Recipe:      recipe.Clone(),
		Status:      entities.OrderStatusProses,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if price != nil {
		p := *price
		o.Price = &p
	}

	created, err := u.repo.Create(ctx, o)
	if err != nil {
		log.Printf("[order][usecase] repository create failed name=%q err=%v", name, err)
		return entities.Order{}, upstream(err)
	}
	log.Printf("[order][usecase] order created order_id=%s patient_key=%q", created.ID, created.PatientKey)

	emit(ctx, u.notifier, u.clock, entities.OrderEventCreated, created)
	if u.scheduler != nil {
		u.scheduler.Schedule(created.ID, u.fireCompletion)
	}
	return created, nil
}

// fireCompletion is the timer callback; nobody is waiting on it, so failures are only logged.
func (u *OrderUseCase) fireCompletion(orderID string) {
	if _, err := u.Complete(context.Background(), orderID); err != nil {
		log.Printf("[order][usecase] completion trigger dropped order_id=%s err=%v", orderID, err)
	}
}

func (u *OrderUseCase) Complete(ctx context.Context, orderID string) (entities.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return entities.Order{}, ErrInvalidOrderID
	}

	updated, err := u.repo.Transition(ctx, orderID, entities.OrderStatusDone, u.clock.Now())
	if err != nil {
		log.Printf("[order][usecase] complete transition failed order_id=%s err=%v", orderID, err)
		return entities.Order{}, upstream(err)
	}
	if updated.ID != "" {
		log.Printf("[order][usecase] order done order_id=%s", updated.ID)
		emit(ctx, u.notifier, u.clock, entities.OrderEventDone, updated)
		return updated, nil
	}

	current, err := u.repo.GetByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, upstream(err)
	}
	if current.ID == "" {
		log.Printf("[order][usecase] complete on missing order order_id=%s", orderID)
		return entities.Order{}, ErrOrderNotFound
	}
	log.Printf("[order][usecase] complete no-op order_id=%s status=%s", orderID, current.Status)
	return current, nil
}

func (u *OrderUseCase) CompleteByPatient(ctx context.Context, name string) (entities.Order, error) {
	key := entities.NormalizePatientName(name)
	if key == "" {
		return entities.Order{}, ErrInvalidPatientName
	}

	latest, err := u.repo.GetLatestByPatient(ctx, key)
	if err != nil {
		return entities.Order{}, upstream(err)
	}
	if latest.ID == "" {
		log.Printf("[order][usecase] completion signal for unknown patient patient_key=%q", key)
		return entities.Order{}, ErrOrderNotFound
	}

	done, err := u.Complete(ctx, latest.ID)
	if err != nil {
		return entities.Order{}, err
	}
	if u.scheduler != nil && u.scheduler.Cancel(latest.ID) {
		log.Printf("[order][usecase] pending timer cancelled order_id=%s", latest.ID)
	}
	return done, nil
}

func (u *OrderUseCase) StatusOf(ctx context.Context, name string) (entities.Order, error) {
	key := entities.NormalizePatientName(name)
	if key == "" {
		return entities.Order{}, ErrInvalidPatientName
	}

	o, err := u.repo.GetLatestByPatient(ctx, key)
	if err != nil {
		return entities.Order{}, upstream(err)
	}
	if o.ID == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderUseCase) GetByID(ctx context.Context, id string) (entities.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, ErrInvalidOrderID
	}

	o, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, upstream(err)
	}
	if o.ID == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderUseCase) ListByStatus(ctx context.Context, status entities.OrderStatus, limit int) ([]entities.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	orders, err := u.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, upstream(err)
	}
	return orders, nil
}

func (u *OrderUseCase) Quote(recipe entities.Recipe) entities.PriceBreakdown {
	return pricing.Compute(recipe, u.settings.Pricing)
}

func (u *OrderUseCase) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrInvalidMessage
	}
	if u.recipes == nil {
		return "", ErrRecipeProviderNotConfigured
	}

	reply, err := u.recipes.Ask(ctx, message)
	if err != nil {
		log.Printf("[order][usecase] ask failed err=%v", err)
		return "", upstream(err)
	}
	return reply, nil
}

func buildRecipePrompt(name, complaint string) string {
	return fmt.Sprintf(
		"Kamu adalah Tabib AI, peracik jamu tradisional Indonesia. Pasien bernama %s mengeluhkan: %s. "+
			"Balas hanya dengan satu objek JSON: nama bahan herbal sebagai key dan takaran dalam gram sebagai value, "+
			`contoh {"jahe": "3 gram", "kunyit": "2 gram"}. Jangan menambahkan teks lain.`,
		name, complaint,
	)
}

func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
