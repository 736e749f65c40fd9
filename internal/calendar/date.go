package calendar

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date adalah kunci kalender murni (tahun, bulan, hari) tanpa jam & timezone.
// Semua lookup kalender WAJIB lewat tipe ini; membandingkan time.Time mentah
// pernah bikin "date not available" palsu gara-gara komponen jam/zona ikut.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime mengambil tanggal wall-clock dari t apa adanya (tanpa konversi zona).
// Representasi zona berbeda dari hari kalender yang sama menghasilkan Date sama.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate menerima "2006-01-02"; kalau client terlanjur mengirim timestamp
// RFC3339, komponen jamnya dibuang.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), nil
	}
	return Date{}, fmt.Errorf("invalid calendar date %q (want YYYY-MM-DD)", s)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC, the storage representation for DATE columns.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid calendar date %s", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
