package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tabib_ai/internal/domain/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// fakeDynamo keeps items by id and records the last query/update it saw.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue

	lastQuery  *dynamodb.QueryInput
	lastUpdate *dynamodb.UpdateItemInput

	queryItems []map[string]types.AttributeValue
	updateOut  *dynamodb.UpdateItemOutput
	updateErr  error
	err        error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[id]; ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQuery = in
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.QueryOutput{Items: f.queryItems}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdate = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateOut == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.updateOut, nil
}

func sampleOrder() entities.Order {
	created := time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC)
	return entities.Order{
		ID:          "ord-1",
		PatientName: "Siti Aminah",
		PatientKey:  "siti aminah",
		Complaint:   "batuk",
		Recipe:      entities.Recipe{"jahe": "3 gram", "kunyit": 2.0},
		Price: &entities.PriceBreakdown{
			TotalGrams:     decimal.NewFromInt(5),
			BaseCost:       decimal.NewFromInt(1500),
			TransactionFee: decimal.RequireFromString("760.5"),
			SystemFee:      decimal.NewFromInt(5000),
			Total:          7261,
		},
		Status:    entities.OrderStatusProses,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestOrderDynamoRepository_CreateAndGet(t *testing.T) {
	t.Setenv("ORDERS_TABLE", "")
	fake := newFakeDynamo()
	repo := NewOrderDynamoRepository(fake)

	o := sampleOrder()
	if _, err := repo.Create(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fake.items["ord-1"]["invoice_code"]; ok {
		t.Fatalf("empty invoice_code must not be written")
	}

	got, err := repo.GetByID(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != o.ID || got.PatientKey != o.PatientKey || got.Status != entities.OrderStatusProses {
		t.Fatalf("unexpected order %+v", got)
	}
	if got.Price == nil || got.Price.Total != 7261 || !got.Price.TransactionFee.Equal(decimal.RequireFromString("760.5")) {
		t.Fatalf("unexpected price %+v", got.Price)
	}
	if got.Recipe["jahe"] != "3 gram" || got.Recipe["kunyit"] != 2.0 {
		t.Fatalf("unexpected recipe %v", got.Recipe)
	}
	if !got.CreatedAt.Equal(o.CreatedAt) || got.CompletedAt != nil {
		t.Fatalf("unexpected times created=%v completed=%v", got.CreatedAt, got.CompletedAt)
	}

	if _, err := repo.Create(context.Background(), o); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
}

func TestOrderDynamoRepository_GetByIDMissing(t *testing.T) {
	repo := NewOrderDynamoRepository(newFakeDynamo())
	got, err := repo.GetByID(context.Background(), "nope")
	if err != nil || got.ID != "" {
		t.Fatalf("expected zero order, got %+v err=%v", got, err)
	}
}

func TestOrderDynamoRepository_GetLatestByPatient(t *testing.T) {
	fake := newFakeDynamo()
	av, err := attributevalue.MarshalMap(toOrderItem(sampleOrder()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fake.queryItems = []map[string]types.AttributeValue{av}
	repo := NewOrderDynamoRepository(fake)

	got, err := repo.GetLatestByPatient(context.Background(), "siti aminah")
	if err != nil || got.ID != "ord-1" {
		t.Fatalf("unexpected result %+v err=%v", got, err)
	}
	q := fake.lastQuery
	if aws.ToString(q.IndexName) != ordersPatientKeyIndex || aws.ToBool(q.ScanIndexForward) || aws.ToInt32(q.Limit) != 1 {
		t.Fatalf("unexpected query %+v", q)
	}
	if q.ExpressionAttributeNames["#pk"] != "patient_key" {
		t.Fatalf("unexpected key attribute %v", q.ExpressionAttributeNames)
	}
}

func TestOrderDynamoRepository_QueriesReturnZeroWhenEmpty(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewOrderDynamoRepository(fake)

	got, err := repo.GetByInvoiceCode(context.Background(), "INV-1")
	if err != nil || got.ID != "" {
		t.Fatalf("expected zero order, got %+v err=%v", got, err)
	}
	if aws.ToString(fake.lastQuery.IndexName) != ordersInvoiceCodeIndex {
		t.Fatalf("unexpected index %q", aws.ToString(fake.lastQuery.IndexName))
	}

	list, err := repo.ListByStatus(context.Background(), entities.OrderStatusDone, 20)
	if err != nil || len(list) != 0 {
		t.Fatalf("unexpected list %v err=%v", list, err)
	}
	if fake.lastQuery.ExpressionAttributeNames["#pk"] != "status" || aws.ToInt32(fake.lastQuery.Limit) != 20 {
		t.Fatalf("unexpected status query %+v", fake.lastQuery)
	}
}

func TestOrderDynamoRepository_TransitionConditions(t *testing.T) {
	fake := newFakeDynamo()
	done := sampleOrder()
	done.Status = entities.OrderStatusDone
	av, _ := attributevalue.MarshalMap(toOrderItem(done))
	fake.updateOut = &dynamodb.UpdateItemOutput{Attributes: av}
	repo := NewOrderDynamoRepository(fake)
	at := time.Date(2024, 5, 1, 10, 0, 7, 0, time.UTC)

	got, err := repo.Transition(context.Background(), "ord-1", entities.OrderStatusDone, at)
	if err != nil || got.Status != entities.OrderStatusDone {
		t.Fatalf("unexpected result %+v err=%v", got, err)
	}

	in := fake.lastUpdate
	if cond := aws.ToString(in.ConditionExpression); cond != "attribute_exists(#id) AND #status IN (:from0)" {
		t.Fatalf("unexpected condition %q", cond)
	}
	if v := in.ExpressionAttributeValues[":from0"].(*types.AttributeValueMemberS).Value; v != "proses" {
		t.Fatalf("unexpected source %q", v)
	}
	if !strings.Contains(aws.ToString(in.UpdateExpression), "#completed_at = :now") {
		t.Fatalf("done must stamp completed_at: %q", aws.ToString(in.UpdateExpression))
	}
	if v := in.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberS).Value; v != formatTime(at) {
		t.Fatalf("unexpected timestamp %q", v)
	}
}

func TestOrderDynamoRepository_TransitionToPaid(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewOrderDynamoRepository(fake)

	if _, err := repo.Transition(context.Background(), "ord-1", entities.OrderStatusPaid, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := fake.lastUpdate
	if cond := aws.ToString(in.ConditionExpression); cond != "attribute_exists(#id) AND #status IN (:from0)" {
		t.Fatalf("unexpected condition %q", cond)
	}
	if v := in.ExpressionAttributeValues[":from0"].(*types.AttributeValueMemberS).Value; v != "menunggu_pembayaran" {
		t.Fatalf("unexpected source %q", v)
	}
	if v := in.ExpressionAttributeValues[":payment_status"].(*types.AttributeValueMemberS).Value; v != "paid" {
		t.Fatalf("unexpected payment status %q", v)
	}
}

func TestOrderDynamoRepository_ConditionFailureIsNotAnError(t *testing.T) {
	fake := newFakeDynamo()
	fake.updateErr = &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	repo := NewOrderDynamoRepository(fake)

	got, err := repo.Transition(context.Background(), "ord-1", entities.OrderStatusDone, time.Now())
	if err != nil || got.ID != "" {
		t.Fatalf("expected zero order and no error, got %+v err=%v", got, err)
	}

	fake.updateErr = errors.New("throttled")
	if _, err := repo.Transition(context.Background(), "ord-1", entities.OrderStatusDone, time.Now()); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestOrderDynamoRepository_TransitionToProsesRejected(t *testing.T) {
	repo := NewOrderDynamoRepository(newFakeDynamo())
	if _, err := repo.Transition(context.Background(), "ord-1", entities.OrderStatusProses, time.Now()); err == nil {
		t.Fatalf("expected error for unreachable status")
	}
}

func TestOrderDynamoRepository_AttachPayment(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewOrderDynamoRepository(fake)
	price := *sampleOrder().Price

	if _, err := repo.AttachPayment(context.Background(), "ord-1", "INV-1", "https://pay/1", price, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := fake.lastUpdate
	if cond := aws.ToString(in.ConditionExpression); cond != "attribute_exists(#id) AND #status IN (:from0, :from1)" {
		t.Fatalf("unexpected condition %q", cond)
	}
	if v := in.ExpressionAttributeValues[":to"].(*types.AttributeValueMemberS).Value; v != "menunggu_pembayaran" {
		t.Fatalf("unexpected target %q", v)
	}
	if v := in.ExpressionAttributeValues[":total"].(*types.AttributeValueMemberN).Value; v != "7261" {
		t.Fatalf("unexpected total %q", v)
	}
	var stored priceItem
	if err := attributevalue.Unmarshal(in.ExpressionAttributeValues[":price"], &stored); err != nil {
		t.Fatalf("price unmarshal: %v", err)
	}
	if stored.TransactionFee != "760.5" {
		t.Fatalf("unexpected stored fee %q", stored.TransactionFee)
	}
}

func TestFormatTime_SortsLexicographically(t *testing.T) {
	a := formatTime(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2024, 5, 1, 10, 0, 0, 500000000, time.UTC))
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
	if got := parseTime(b); got.Nanosecond() != 500000000 {
		t.Fatalf("unexpected round trip %v", got)
	}
}
