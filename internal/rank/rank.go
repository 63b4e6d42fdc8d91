package rank

import "time"

// ID identifies a membership rank.
type ID string

const (
	Registrado ID = "registrado"
	Invitado   ID = "invitado"
	Miembro    ID = "miembro"
	VIP        ID = "vip"
	Premium    ID = "premium"
	Elite      ID = "elite"
)

// Order is the canonical rank order, lowest first. All "higher/lower"
// comparisons go through position in this slice, never through price.
var Order = []ID{Registrado, Invitado, Miembro, VIP, Premium, Elite}

// Definition holds the static configuration of one rank.
type Definition struct {
	ID              ID            `json:"id"`
	UpgradePrice    float64       `json:"upgrade_price"`
	PointBonus      int64         `json:"point_bonus"`
	CounterCeiling  time.Duration `json:"-"`
	TotemFloor      int           `json:"totem_floor"`
	DailyAdCap      int           `json:"daily_ad_cap"`
	MonthlyAdVisits int           `json:"monthly_ad_visits"`
	AdPackageSlots  int           `json:"ad_package_slots"`
	Benefits        []string      `json:"benefits"`
}

var table = map[ID]Definition{
	Registrado: {
		ID:              Registrado,
		UpgradePrice:    0,
		PointBonus:      0,
		CounterCeiling:  1 * time.Hour,
		TotemFloor:      0,
		DailyAdCap:      5,
		MonthlyAdVisits: 100,
		AdPackageSlots:  1,
		Benefits:        []string{"inicio"},
	},
	Invitado: {
		ID:              Invitado,
		UpgradePrice:    10,
		PointBonus:      10,
		CounterCeiling:  2 * time.Hour,
		TotemFloor:      1,
		DailyAdCap:      10,
		MonthlyAdVisits: 200,
		AdPackageSlots:  2,
		Benefits:        []string{"inicio", "anuncios"},
	},
	Miembro: {
		ID:              Miembro,
		UpgradePrice:    30,
		PointBonus:      30,
		CounterCeiling:  4 * time.Hour,
		TotemFloor:      2,
		DailyAdCap:      15,
		MonthlyAdVisits: 400,
		AdPackageSlots:  3,
		Benefits:        []string{"inicio", "anuncios", "sorteos"},
	},
	VIP: {
		ID:              VIP,
		UpgradePrice:    60,
		PointBonus:      60,
		CounterCeiling:  8 * time.Hour,
		TotemFloor:      3,
		DailyAdCap:      20,
		MonthlyAdVisits: 800,
		AdPackageSlots:  4,
		Benefits:        []string{"inicio", "anuncios", "sorteos", "noticias"},
	},
	Premium: {
		ID:              Premium,
		UpgradePrice:    150,
		PointBonus:      150,
		CounterCeiling:  12 * time.Hour,
		TotemFloor:      4,
		DailyAdCap:      30,
		MonthlyAdVisits: 1500,
		AdPackageSlots:  5,
		Benefits:        []string{"inicio", "anuncios", "sorteos", "noticias", "calculadora"},
	},
	Elite: {
		ID:              Elite,
		UpgradePrice:    400,
		PointBonus:      400,
		CounterCeiling:  24 * time.Hour,
		TotemFloor:      5,
		DailyAdCap:      50,
		MonthlyAdVisits: 3000,
		AdPackageSlots:  6,
		Benefits:        []string{"inicio", "anuncios", "sorteos", "noticias", "calculadora", "referidos"},
	},
}

// Get returns the definition of a rank. A rank missing from Order
// (leftover config) is reported as unknown.
func Get(id ID) (Definition, bool) {
	if IndexOf(id) < 0 {
		return Definition{}, false
	}
	def, ok := table[id]
	return def, ok
}

// IndexOf returns the position of id in Order, or -1 when unknown.
func IndexOf(id ID) int {
	for i, r := range Order {
		if r == id {
			return i
		}
	}
	return -1
}

// IsHigher reports whether a sits strictly above b in the rank order.
func IsHigher(a, b ID) bool {
	ia, ib := IndexOf(a), IndexOf(b)
	if ia < 0 || ib < 0 {
		return false
	}
	return ia > ib
}

// Next returns the rank directly above id. ok is false at the top of the
// order or for an unknown rank.
func Next(id ID) (next ID, ok bool) {
	i := IndexOf(id)
	if i < 0 || i >= len(Order)-1 {
		return "", false
	}
	return Order[i+1], true
}

// BonusFor returns the point bonus credited when id is reached.
func BonusFor(id ID) int64 {
	return table[id].PointBonus
}

// PriceFor returns the upgrade price of id.
func PriceFor(id ID) float64 {
	return table[id].UpgradePrice
}

// CeilingFor returns the activity counter ceiling of id.
func CeilingFor(id ID) time.Duration {
	def, ok := table[id]
	if !ok {
		return table[Registrado].CounterCeiling
	}
	return def.CounterCeiling
}

// TotemFloorFor returns the guaranteed minimum totem count of id.
func TotemFloorFor(id ID) int {
	return table[id].TotemFloor
}

// DailyAdCapFor returns how many ad claims per day id allows.
func DailyAdCapFor(id ID) int {
	return table[id].DailyAdCap
}

// MonthlyAdVisitsFor returns the monthly visit allotment of a new ad
// owned by id.
func MonthlyAdVisitsFor(id ID) int {
	return table[id].MonthlyAdVisits
}

// AdPackageSlotsFor returns how many ads id may own at once.
func AdPackageSlotsFor(id ID) int {
	return table[id].AdPackageSlots
}

// TotalBonusUpTo sums the point bonuses of every rank at or below id in
// the order. Display and audit only, live accounting credits per upgrade.
func TotalBonusUpTo(id ID) int64 {
	idx := IndexOf(id)
	if idx < 0 {
		return 0
	}
	var total int64
	for _, r := range Order[:idx+1] {
		total += table[r].PointBonus
	}
	return total
}
