package main

import (
	"fmt"
	"slices"
	"time"
)

// PhotoRecord is a matched file and the time it was captured
type PhotoRecord struct {
	CapturedAt time.Time
	Path       string
}

// Date is a calendar date without a time zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return d.Year - o.Year
	case d.Month != o.Month:
		return int(d.Month) - int(o.Month)
	}
	return d.Day - o.Day
}

// dateBuckets groups records by capture date. Dates are kept in ascending
// order; records within a date keep the order they were added in.
type dateBuckets struct {
	dates  []Date
	photos map[Date][]PhotoRecord
	count  int
}

func newDateBuckets() *dateBuckets {
	return &dateBuckets{photos: make(map[Date][]PhotoRecord)}
}

func (b *dateBuckets) add(rec PhotoRecord) {
	d := dateOf(rec.CapturedAt)
	if _, ok := b.photos[d]; !ok {
		i, _ := slices.BinarySearchFunc(b.dates, d, Date.compare)
		b.dates = slices.Insert(b.dates, i, d)
	}
	b.photos[d] = append(b.photos[d], rec)
	b.count++
}

// Len is the total number of records across all dates
func (b *dateBuckets) Len() int {
	return b.count
}

// newestFirst returns the bucketed dates in descending order
func (b *dateBuckets) newestFirst() []Date {
	dates := slices.Clone(b.dates)
	slices.Reverse(dates)
	return dates
}

// records returns the records for d in the order they were added
func (b *dateBuckets) records(d Date) []PhotoRecord {
	return b.photos[d]
}
