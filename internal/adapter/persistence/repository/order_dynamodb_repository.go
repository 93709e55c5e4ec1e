package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultOrdersTableName = "orders"
	ordersPatientKeyIndex  = "patient_key-index"
	ordersStatusIndex      = "status-index"
	ordersInvoiceCodeIndex = "invoice_code-index"
)

// dynamoAPI is the subset of *dynamodb.Client used by the repository.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type priceItem struct {
	TotalGrams     string `dynamodbav:"total_grams"`
	BaseCost       string `dynamodbav:"base_cost"`
	TransactionFee string `dynamodbav:"transaction_fee"`
	SystemFee      string `dynamodbav:"system_fee"`
	Total          int64  `dynamodbav:"total"`
}

type orderItem struct {
	ID          string         `dynamodbav:"id"`
	PatientName string         `dynamodbav:"patient_name"`
	PatientKey  string         `dynamodbav:"patient_key"`
	Complaint   string         `dynamodbav:"complaint"`
	Recipe      map[string]any `dynamodbav:"recipe"`
	Price       *priceItem     `dynamodbav:"price,omitempty"`
	Total       int64          `dynamodbav:"total"`
	Status      string         `dynamodbav:"status"`

	// GSI key attributes must be absent rather than empty.
	InvoiceCode   string `dynamodbav:"invoice_code,omitempty"`
	CheckoutURL   string `dynamodbav:"checkout_url,omitempty"`
	PaymentStatus string `dynamodbav:"payment_status,omitempty"`

	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
	CompletedAt string `dynamodbav:"completed_at,omitempty"`
	PaidAt      string `dynamodbav:"paid_at,omitempty"`
}

// OrderDynamoRepository persists Order entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: patient_key-index (PK: patient_key, SK: created_at)
//   - GSI: status-index (PK: status, SK: created_at)
//   - GSI: invoice_code-index (PK: invoice_code)
//
// Status changes are conditional on the stored status, so concurrent triggers
// (timer, device signal, payment callback) can never move an order backwards.

type OrderDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb dynamoAPI) *OrderDynamoRepository {
	return &OrderDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("ORDERS_TABLE", defaultOrdersTableName),
	}
}

func (r *OrderDynamoRepository) Create(ctx context.Context, o entities.Order) (entities.Order, error) {
	it := toOrderItem(o)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) GetLatestByPatient(ctx context.Context, patientKey string) (entities.Order, error) {
	orders, err := r.query(ctx, ordersPatientKeyIndex, "#pk = :pk", "patient_key", patientKey, 1, false)
	if err != nil || len(orders) == 0 {
		return entities.Order{}, err
	}
	return orders[0], nil
}

func (r *OrderDynamoRepository) GetByInvoiceCode(ctx context.Context, invoiceCode string) (entities.Order, error) {
	orders, err := r.query(ctx, ordersInvoiceCodeIndex, "#pk = :pk", "invoice_code", invoiceCode, 1, true)
	if err != nil || len(orders) == 0 {
		return entities.Order{}, err
	}
	return orders[0], nil
}

// ListByStatus returns the newest orders first.
func (r *OrderDynamoRepository) ListByStatus(ctx context.Context, status entities.OrderStatus, limit int) ([]entities.Order, error) {
	return r.query(ctx, ordersStatusIndex, "#pk = :pk", "status", string(status), limit, false)
}

func (r *OrderDynamoRepository) query(ctx context.Context, index, keyCond, keyAttr, keyValue string, limit int, ascending bool) ([]entities.Order, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(keyCond),
		ExpressionAttributeNames: map[string]string{
			"#pk": keyAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: keyValue},
		},
		ScanIndexForward: aws.Bool(ascending),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := r.ddb.Query(ctx, in)
	if err != nil {
		return nil, err
	}

	items := make([]entities.Order, 0, len(out.Items))
	for _, raw := range out.Items {
		var it orderItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromOrderItem(it))
	}
	return items, nil
}

func (r *OrderDynamoRepository) Transition(ctx context.Context, id string, to entities.OrderStatus, at time.Time) (entities.Order, error) {
	sources := entities.SourcesOf(to)
	if len(sources) == 0 {
		return entities.Order{}, fmt.Errorf("no transition leads to status %q", to)
	}

	return r.update(ctx, id, sources, at, func(now string) (string, map[string]types.AttributeValue, map[string]string) {
		sets := []string{"#status = :to", "#updated_at = :now"}
		vals := map[string]types.AttributeValue{
			":to":  &types.AttributeValueMemberS{Value: string(to)},
			":now": &types.AttributeValueMemberS{Value: now},
		}
		names := map[string]string{
			"#updated_at": "updated_at",
		}
		switch to {
		case entities.OrderStatusDone:
			sets = append(sets, "#completed_at = :now")
			names["#completed_at"] = "completed_at"
		case entities.OrderStatusPaid:
			sets = append(sets, "#paid_at = :now", "#payment_status = :payment_status")
			names["#paid_at"] = "paid_at"
			names["#payment_status"] = "payment_status"
			vals[":payment_status"] = &types.AttributeValueMemberS{Value: string(entities.PaymentStatusPaid)}
		}
		return "SET " + strings.Join(sets, ", "), vals, names
	})
}

func (r *OrderDynamoRepository) AttachPayment(ctx context.Context, id string, invoiceCode string, checkoutURL string, price entities.PriceBreakdown, at time.Time) (entities.Order, error) {
	priceAV, err := attributevalue.Marshal(toPriceItem(price))
	if err != nil {
		return entities.Order{}, err
	}
	to := entities.OrderStatusMenungguPembayaran

	return r.update(ctx, id, entities.SourcesOf(to), at, func(now string) (string, map[string]types.AttributeValue, map[string]string) {
		expr := "SET #status = :to, #invoice_code = :invoice_code, #checkout_url = :checkout_url, " +
			"#payment_status = :payment_status, #price = :price, #total = :total, #updated_at = :now"
		vals := map[string]types.AttributeValue{
			":to":             &types.AttributeValueMemberS{Value: string(to)},
			":invoice_code":   &types.AttributeValueMemberS{Value: invoiceCode},
			":checkout_url":   &types.AttributeValueMemberS{Value: checkoutURL},
			":payment_status": &types.AttributeValueMemberS{Value: string(entities.PaymentStatusPending)},
			":price":          priceAV,
			":total":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", price.Total)},
			":now":            &types.AttributeValueMemberS{Value: now},
		}
		names := map[string]string{
			"#invoice_code":   "invoice_code",
			"#checkout_url":   "checkout_url",
			"#payment_status": "payment_status",
			"#price":          "price",
			"#total":          "total",
			"#updated_at":     "updated_at",
		}
		return expr, vals, names
	})
}

// update applies build's expression only while the stored status is one of sources.
// A failed condition is reported as a zero Order, not an error.
func (r *OrderDynamoRepository) update(
	ctx context.Context,
	id string,
	sources []entities.OrderStatus,
	at time.Time,
	build func(now string) (updateExpr string, values map[string]types.AttributeValue, names map[string]string),
) (entities.Order, error) {
	updateExpr, values, names := build(formatTime(at))

	placeholders := make([]string, 0, len(sources))
	for i, s := range sources {
		ph := fmt.Sprintf(":from%d", i)
		placeholders = append(placeholders, ph)
		values[ph] = &types.AttributeValueMemberS{Value: string(s)}
	}
	condition := "attribute_exists(#id) AND #status IN (" + strings.Join(placeholders, ", ") + ")"

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String(condition),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id", "#status": "status"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Order{}, nil
		}
		return entities.Order{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Order{}, nil
	}
	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func toOrderItem(o entities.Order) orderItem {
	it := orderItem{
		ID:            o.ID,
		PatientName:   o.PatientName,
		PatientKey:    o.PatientKey,
		Complaint:     o.Complaint,
		Recipe:        map[string]any(o.Recipe.Clone()),
		Total:         o.Total(),
		Status:        string(o.Status),
		InvoiceCode:   o.InvoiceCode,
		CheckoutURL:   o.CheckoutURL,
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
		CompletedAt:   formatOptionalTime(o.CompletedAt),
		PaidAt:        formatOptionalTime(o.PaidAt),
	}
	if o.Price != nil {
		p := toPriceItem(*o.Price)
		it.Price = &p
	}
	return it
}

func fromOrderItem(it orderItem) entities.Order {
	o := entities.Order{
		ID:            it.ID,
		PatientName:   it.PatientName,
		PatientKey:    it.PatientKey,
		Complaint:     it.Complaint,
		Recipe:        entities.Recipe(it.Recipe).Clone(),
		Status:        entities.OrderStatus(it.Status),
		InvoiceCode:   it.InvoiceCode,
		CheckoutURL:   it.CheckoutURL,
		PaymentStatus: entities.PaymentStatus(it.PaymentStatus),
		CreatedAt:     parseTime(it.CreatedAt),
		UpdatedAt:     parseTime(it.UpdatedAt),
		CompletedAt:   parseOptionalTime(it.CompletedAt),
		PaidAt:        parseOptionalTime(it.PaidAt),
	}
	if it.Price != nil {
		p := fromPriceItem(*it.Price)
		o.Price = &p
	}
	return o
}

func toPriceItem(p entities.PriceBreakdown) priceItem {
	return priceItem{
		TotalGrams:     p.TotalGrams.String(),
		BaseCost:       p.BaseCost.String(),
		TransactionFee: p.TransactionFee.String(),
		SystemFee:      p.SystemFee.String(),
		Total:          p.Total,
	}
}

func fromPriceItem(it priceItem) entities.PriceBreakdown {
	return entities.PriceBreakdown{
		TotalGrams:     decimalOrZero(it.TotalGrams),
		BaseCost:       decimalOrZero(it.BaseCost),
		TransactionFee: decimalOrZero(it.TransactionFee),
		SystemFee:      decimalOrZero(it.SystemFee),
		Total:          it.Total,
	}
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
