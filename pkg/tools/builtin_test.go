package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLookupOrderFound(t *testing.T) {
	tool := LookupOrder(NewDataset())

	out, err := tool.Handler(context.Background(), `{"order_id":"A1001"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var order Order
	if err := json.Unmarshal([]byte(out), &order); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if order.Status != "shipped" {
		t.Errorf("expected shipped, got %q", order.Status)
	}
	if order.Carrier != "UPS" {
		t.Errorf("expected UPS carrier, got %q", order.Carrier)
	}
}

func TestLookupOrderCaseInsensitive(t *testing.T) {
	tool := LookupOrder(NewDataset())

	out, err := tool.Handler(context.Background(), `{"order_id":" a1002 "}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "processing") {
		t.Errorf("expected processing order, got %q", out)
	}
}

func TestLookupOrderMissReturnsStructuredNotFound(t *testing.T) {
	tool := LookupOrder(NewDataset())

	out, err := tool.Handler(context.Background(), `{"order_id":"Z9999"}`)
	if err != nil {
		t.Fatalf("a miss must not be an error, got: %v", err)
	}
	if !strings.Contains(out, "no order found") {
		t.Errorf("expected structured not-found, got %q", out)
	}
}

func TestLookupOrderInvalidArguments(t *testing.T) {
	tool := LookupOrder(NewDataset())

	tests := []struct {
		name string
		args string
	}{
		{"malformed json", `{order_id`},
		{"missing id", `{}`},
		{"blank id", `{"order_id":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tool.Handler(context.Background(), tt.args); err == nil {
				t.Error("expected error for invalid arguments")
			}
		})
	}
}

func TestGetAccountInfo(t *testing.T) {
	data := NewDataset()
	tool := GetAccountInfo(data)

	out, err := tool.Handler(context.Background(), `{}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(out), &account); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if account.Plan != "premium" {
		t.Errorf("expected premium plan, got %q", account.Plan)
	}
	if account.OpenOrders != 2 {
		t.Errorf("expected 2 open orders, got %d", account.OpenOrders)
	}
}

func TestDatasetPutOrder(t *testing.T) {
	data := NewDataset()
	data.PutOrder(Order{ID: "B2000", Status: "returned", Item: "keyboard"})

	o, ok := data.Order("B2000")
	if !ok {
		t.Fatal("expected order to be stored")
	}
	if o.Status != "returned" {
		t.Errorf("expected returned, got %q", o.Status)
	}
}
