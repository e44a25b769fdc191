package usecase

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

func TestCart_ConfirmMergesByName(t *testing.T) {
	cart := NewCart()
	oil := product("2", "Oil", "B2", 120)

	for i := 0; i < 5; i++ {
		cart.Confirm(oil)
	}

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", lines[0].Quantity)
	}
}

func TestCart_ConfirmKeepsFirstPriceSnapshot(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("2", "Oil", "B2", 120))
	cart.Confirm(product("2", "Oil", "B2", 150))

	line := cart.Lines()[0]
	if !line.Price.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Price = %s, want 120", line.Price)
	}
	if line.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", line.Quantity)
	}
}

func TestCart_SameNameDifferentProductsMerge(t *testing.T) {
	// Lines are keyed by name, so distinct products sharing a name collapse
	cart := NewCart()
	cart.Confirm(product("1", "Milk", "M1", 60))
	cart.Confirm(product("7", "Milk", "M7", 90))

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 2 || !lines[0].Price.Equal(decimal.NewFromInt(60)) {
		t.Errorf("line = %+v, want quantity 2 at price 60", lines[0])
	}
}

func TestCart_OrderIsFirstConfirmedFirst(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("2", "Oil", "B2", 120))
	cart.Confirm(product("1", "Rice", "A1", 50))
	cart.Confirm(product("2", "Oil", "B2", 120))

	lines := cart.Lines()
	if lines[0].Name != "Oil" || lines[1].Name != "Rice" {
		t.Errorf("order = [%s %s], want [Oil Rice]", lines[0].Name, lines[1].Name)
	}
}

func TestCart_IncrementDecrement(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("1", "Rice", "A1", 50))

	if err := cart.Increment("Rice"); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if err := cart.Increment("Rice"); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if got := cart.Lines()[0].Quantity; got != 3 {
		t.Errorf("Quantity after increments = %d, want 3", got)
	}

	if err := cart.Decrement("Rice"); err != nil {
		t.Fatalf("Decrement() error = %v", err)
	}
	if got := cart.Lines()[0].Quantity; got != 2 {
		t.Errorf("Quantity after decrement = %d, want 2", got)
	}
}

func TestCart_DecrementFloor(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("1", "Rice", "A1", 50))

	for i := 0; i < 3; i++ {
		if err := cart.Decrement("Rice"); err != nil {
			t.Fatalf("Decrement() error = %v", err)
		}
	}

	if cart.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (decrement must not remove)", cart.Len())
	}
	if got := cart.Lines()[0].Quantity; got != 1 {
		t.Errorf("Quantity = %d, want 1", got)
	}
}

func TestCart_Remove(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("1", "Rice", "A1", 50))
	cart.Confirm(product("2", "Oil", "B2", 120))
	cart.Confirm(product("3", "Salt", "C3", 15))

	if err := cart.Remove("Oil"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 2 || lines[0].Name != "Rice" || lines[1].Name != "Salt" {
		t.Errorf("lines = %+v, want [Rice Salt]", lines)
	}

	// Confirming again after removal starts a fresh line at quantity 1
	cart.Confirm(product("2", "Oil", "B2", 120))
	lines = cart.Lines()
	if lines[2].Name != "Oil" || lines[2].Quantity != 1 {
		t.Errorf("re-added line = %+v, want Oil x1 at the end", lines[2])
	}
}

func TestCart_UnknownLine(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("1", "Rice", "A1", 50))

	ops := map[string]func(string) error{
		"increment": cart.Increment,
		"decrement": cart.Decrement,
		"remove":    cart.Remove,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op("Bread"); !errors.Is(err, domain.ErrLineNotFound) {
				t.Errorf("error = %v, want ErrLineNotFound", err)
			}
		})
	}
	if got := cart.Lines()[0].Quantity; got != 1 {
		t.Errorf("Quantity = %d, want 1 (unknown ops must not touch other lines)", got)
	}
}

func TestCart_MasterTotal(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Cart)
		want  string
	}{
		{
			name:  "empty cart",
			build: func(c *Cart) {},
			want:  "0.00",
		},
		{
			name: "10 x 2 plus 5 x 3",
			build: func(c *Cart) {
				c.Confirm(product("1", "A", "a", 10))
				c.Confirm(product("1", "A", "a", 10))
				for i := 0; i < 3; i++ {
					c.Confirm(product("2", "B", "b", 5))
				}
			},
			want: "35.00",
		},
		{
			name: "fractional prices are not rounded until formatting",
			build: func(c *Cart) {
				p := product("1", "Gum", "g", 0)
				p.Price = decimal.RequireFromString("0.335")
				c.Confirm(p)
				c.Confirm(p)
				c.Confirm(p)
			},
			want: "1.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart()
			tt.build(cart)
			if got := domain.FormatAmount(cart.MasterTotal()); got != tt.want {
				t.Errorf("MasterTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCart_MasterTotalTracksMutations(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("1", "Rice", "A1", 50))
	cart.Confirm(product("2", "Oil", "B2", 120))

	if got := cart.MasterTotal(); !got.Equal(decimal.NewFromInt(170)) {
		t.Errorf("MasterTotal() = %s, want 170", got)
	}

	_ = cart.Increment("Oil")
	if got := cart.MasterTotal(); !got.Equal(decimal.NewFromInt(290)) {
		t.Errorf("MasterTotal() after increment = %s, want 290", got)
	}

	_ = cart.Remove("Rice")
	if got := cart.MasterTotal(); !got.Equal(decimal.NewFromInt(240)) {
		t.Errorf("MasterTotal() after remove = %s, want 240", got)
	}
}

func TestCart_LinesIsACopy(t *testing.T) {
	cart := NewCart()
	cart.Confirm(product("1", "Rice", "A1", 50))

	lines := cart.Lines()
	lines[0].Quantity = 99

	if got := cart.Lines()[0].Quantity; got != 1 {
		t.Errorf("Quantity = %d, want 1", got)
	}
}
