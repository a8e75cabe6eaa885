// ABOUTME: Morning briefing selection: due/overdue buckets, birthdays and the daily digest
// ABOUTME: Pure functions over contacts and events; nothing here writes
package briefing

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/synchro/models"
)

// UpcomingWindowDays is how far ahead the digest looks for due contacts and birthdays.
const UpcomingWindowDays = 7

type Entry struct {
	Contact   models.Contact `json:"contact"`
	DaysUntil int            `json:"days_until"`
}

type Buckets struct {
	Overdue     []Entry `json:"overdue"`
	DueToday    []Entry `json:"due_today"`
	DueThisWeek []Entry `json:"due_this_week"`
}

type Stats struct {
	OverdueCount           int `json:"overdue_count"`
	DueTodayCount          int `json:"due_today_count"`
	DueThisWeekCount       int `json:"due_this_week_count"`
	BirthdaysTodayCount    int `json:"birthdays_today_count"`
	UpcomingBirthdaysCount int `json:"upcoming_birthdays_count"`
	TodayEventsCount       int `json:"today_events_count"`
	WeekEventsCount        int `json:"week_events_count"`
}

type Digest struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	Overdue           []Entry                `json:"overdue"`
	DueToday          []Entry                `json:"due_today"`
	DueThisWeek       []Entry                `json:"due_this_week"`
	BirthdaysToday    []Entry                `json:"birthdays_today"`
	UpcomingBirthdays []Entry                `json:"upcoming_birthdays"`
	TodayEvents       []models.CalendarEvent `json:"today_events"`
	WeekEvents        []models.CalendarEvent `json:"week_events"`
	Stats             Stats                  `json:"stats"`
}

// DueOrOverdue returns the scheduled contacts whose next_due is at or before now.
func DueOrOverdue(contacts []models.Contact, now time.Time) []models.Contact {
	out := []models.Contact{}
	for _, c := range contacts {
		if c.Scheduled() && c.NextDue != nil && !c.NextDue.After(now) {
			out = append(out, c)
		}
	}
	return out
}

// DaysUntil is the whole number of days from now to due, rounded down.
func DaysUntil(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

// Categorize buckets scheduled contacts by how soon they are due. Contacts more
// than a week out are left out.
func Categorize(contacts []models.Contact, now time.Time) Buckets {
	b := Buckets{Overdue: []Entry{}, DueToday: []Entry{}, DueThisWeek: []Entry{}}
	for _, c := range contacts {
		if !c.Scheduled() || c.NextDue == nil {
			continue
		}
		days := DaysUntil(*c.NextDue, now)
		e := Entry{Contact: c, DaysUntil: days}
		switch {
		case days < 0:
			b.Overdue = append(b.Overdue, e)
		case days <= 1:
			b.DueToday = append(b.DueToday, e)
		case days <= UpcomingWindowDays:
			b.DueThisWeek = append(b.DueThisWeek, e)
		}
	}
	sortEntries(b.Overdue)
	sortEntries(b.DueToday)
	sortEntries(b.DueThisWeek)
	return b
}

// DaysUntilBirthday returns the days until the next occurrence of birthday
// (YYYY-MM-DD or MM-DD). A Feb 29 birthday falls on Mar 1 in other years.
func DaysUntilBirthday(birthday string, now time.Time) (int, bool) {
	birthday = strings.TrimSpace(birthday)
	var month time.Month
	var day int
	if t, err := time.Parse("2006-01-02", birthday); err == nil {
		month, day = t.Month(), t.Day()
	} else if t, err := time.Parse("01-02", birthday); err == nil {
		month, day = t.Month(), t.Day()
	} else {
		return 0, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(now.Year()+1, month, day, 0, 0, 0, 0, time.UTC)
	}
	return int(next.Sub(today).Hours() / 24), true
}

// Birthdays splits contacts with a parseable birthday into those celebrating
// today and those within the upcoming week.
func Birthdays(contacts []models.Contact, now time.Time) (today, upcoming []Entry) {
	today, upcoming = []Entry{}, []Entry{}
	for _, c := range contacts {
		if c.Birthday == "" {
			continue
		}
		days, ok := DaysUntilBirthday(c.Birthday, now)
		if !ok {
			continue
		}
		switch {
		case days == 0:
			today = append(today, Entry{Contact: c})
		case days <= UpcomingWindowDays:
			upcoming = append(upcoming, Entry{Contact: c, DaysUntil: days})
		}
	}
	sortEntries(today)
	sortEntries(upcoming)
	return today, upcoming
}

// BuildDigest assembles the morning digest from the owner's contacts and the
// events of today and the coming week.
func BuildDigest(contacts []models.Contact, todayEvents, weekEvents []models.CalendarEvent, now time.Time) *Digest {
	b := Categorize(contacts, now)
	bdToday, bdUpcoming := Birthdays(contacts, now)
	if todayEvents == nil {
		todayEvents = []models.CalendarEvent{}
	}
	if weekEvents == nil {
		weekEvents = []models.CalendarEvent{}
	}

	return &Digest{
		GeneratedAt:       now,
		Overdue:           b.Overdue,
		DueToday:          b.DueToday,
		DueThisWeek:       b.DueThisWeek,
		BirthdaysToday:    bdToday,
		UpcomingBirthdays: bdUpcoming,
		TodayEvents:       todayEvents,
		WeekEvents:        weekEvents,
		Stats: Stats{
			OverdueCount:           len(b.Overdue),
			DueTodayCount:          len(b.DueToday),
			DueThisWeekCount:       len(b.DueThisWeek),
			BirthdaysTodayCount:    len(bdToday),
			UpcomingBirthdaysCount: len(bdUpcoming),
			TodayEventsCount:       len(todayEvents),
			WeekEventsCount:        len(weekEvents),
		},
	}
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DaysUntil != entries[j].DaysUntil {
			return entries[i].DaysUntil < entries[j].DaysUntil
		}
		return strings.ToLower(entries[i].Contact.Name) < strings.ToLower(entries[j].Contact.Name)
	})
}
