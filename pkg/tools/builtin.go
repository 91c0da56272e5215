package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Svayampatel/Voice-ai/pkg/engine"
)

func engineToolDef(name, description string, parameters map[string]interface{}) engine.ToolDef {
	return engine.ToolDef{Name: name, Description: description, Parameters: parameters}
}

// NewSupportRegistry creates a registry with the builtin customer-support
// tools wired to the given dataset.
func NewSupportRegistry(data *Dataset, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(LookupOrder(data))
	r.Register(GetAccountInfo(data))
	return r
}

// LookupOrder returns the order-status tool backed by the dataset.
func LookupOrder(data *Dataset) Tool {
	return Tool{
		Def: engineToolDef(
			"lookup_order",
			"Look up the status of a customer order by its order ID.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"order_id": map[string]interface{}{
						"type":        "string",
						"description": "The order ID, e.g. A1001.",
					},
				},
				"required": []string{"order_id"},
			},
		),
		Handler: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				OrderID string `json:"order_id"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			id := strings.ToUpper(strings.TrimSpace(args.OrderID))
			if id == "" {
				return "", fmt.Errorf("order_id is required")
			}

			order, ok := data.Order(id)
			if !ok {
				return marshal(map[string]string{
					"error": fmt.Sprintf("no order found with ID %s", id),
				})
			}
			return marshal(order)
		},
	}
}

// GetAccountInfo returns the account-summary tool backed by the dataset.
func GetAccountInfo(data *Dataset) Tool {
	return Tool{
		Def: engineToolDef(
			"get_account_info",
			"Get a summary of the customer's account: plan, tenure and open orders.",
			map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		),
		Handler: func(ctx context.Context, arguments string) (string, error) {
			return marshal(data.Account())
		},
	}
}

func marshal(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(b), nil
}
