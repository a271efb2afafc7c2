package health

// Mana is a spendable resource pool.
//
// Invariant: 0 <= current <= max.
type Mana struct {
	current int
	max     int
}

// NewMana creates a full mana pool. Negative capacity is treated as 0.
func NewMana(capacity int) *Mana {
	if capacity < 0 {
		capacity = 0
	}
	return &Mana{current: capacity, max: capacity}
}

// Current returns the current mana.
func (m *Mana) Current() int { return m.current }

// Max returns the maximum mana.
func (m *Mana) Max() int { return m.max }

// SetMaxMana changes the maximum, refilling when refill is true.
func (m *Mana) SetMaxMana(value int, refill bool) {
	if value < 0 {
		return
	}
	m.max = value
	if refill || m.current > m.max {
		m.current = m.max
	}
}

// Spend removes amount mana.
//
// Postcondition: Returns false with no mutation when amount <= 0 or
// amount exceeds the current mana.
func (m *Mana) Spend(amount int) bool {
	if amount <= 0 || amount > m.current {
		return false
	}
	m.current -= amount
	return true
}

// Restore adds up to amount mana, capped at max.
func (m *Mana) Restore(amount int) {
	if amount <= 0 {
		return
	}
	m.current = min(m.current+amount, m.max)
}
