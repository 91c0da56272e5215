package tools

import "sync"

// Order is one customer order in the support dataset.
type Order struct {
	ID       string `json:"order_id"`
	Status   string `json:"status"`
	Item     string `json:"item"`
	Carrier  string `json:"carrier,omitempty"`
	Tracking string `json:"tracking,omitempty"`
	ETA      string `json:"eta,omitempty"`
}

// Account is the customer account record.
type Account struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Plan       string `json:"plan"`
	MemberFor  string `json:"member_for"`
	OpenOrders int    `json:"open_orders"`
}

// Dataset is the in-memory backing store the builtin support tools read
// from. It stands in for an order-management system in demos and tests.
type Dataset struct {
	mu      sync.RWMutex
	orders  map[string]Order
	account Account
}

// NewDataset creates a dataset seeded with demo records.
func NewDataset() *Dataset {
	d := &Dataset{orders: make(map[string]Order)}
	d.account = Account{
		Name:       "Jordan Avery",
		Email:      "jordan.avery@example.com",
		Plan:       "premium",
		MemberFor:  "3 years",
		OpenOrders: 2,
	}
	seed := []Order{
		{ID: "A1001", Status: "shipped", Item: "wireless headphones", Carrier: "UPS", Tracking: "1Z999AA10123456784", ETA: "2 days"},
		{ID: "A1002", Status: "processing", Item: "standing desk", ETA: "5 days"},
		{ID: "A1003", Status: "delivered", Item: "usb-c dock", Carrier: "FedEx", Tracking: "449044304137821"},
	}
	for _, o := range seed {
		d.orders[o.ID] = o
	}
	return d
}

// Order looks up one order by ID.
func (d *Dataset) Order(id string) (Order, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.orders[id]
	return o, ok
}

// PutOrder adds or replaces an order record.
func (d *Dataset) PutOrder(o Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders[o.ID] = o
}

// Account returns the customer account record.
func (d *Dataset) Account() Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.account
}

// SetAccount replaces the customer account record.
func (d *Dataset) SetAccount(a Account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.account = a
}
