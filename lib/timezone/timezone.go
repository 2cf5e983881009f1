package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		panic(err)
	}
}

// force the clock into Hong Kong time regardless of where the host
// runs, date keys derived from Year()/Month()/Day() must line up with
// the exchange's publication day
func Now() time.Time {
	return time.Now().In(Location)
}

// Date is a calendar day in Hong Kong, formatted as YYYY-MM-DD.
// It is the key snapshots are stored and looked up under.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	t = t.In(Location)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func Today() Date {
	return DateOf(Now())
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, Location)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, Location)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}
