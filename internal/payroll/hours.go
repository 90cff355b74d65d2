package payroll

import "slices"

// HoursTable accumulates hours per employee and bucket. Employees keep the
// order in which they were first added.
type HoursTable struct {
	employees []string
	hours     map[string]map[Bucket]float64
	buckets   []Bucket
	salaried  map[string]bool
}

func NewHoursTable() *HoursTable {
	return &HoursTable{
		hours:    map[string]map[Bucket]float64{},
		salaried: map[string]bool{},
	}
}

// Add records hours for an employee. Amounts below MinBucketHours are
// ignored and never create an employee row.
func (t *HoursTable) Add(employee string, bucket Bucket, hours float64) {
	if hours < MinBucketHours {
		return
	}
	row, ok := t.hours[employee]
	if !ok {
		row = map[Bucket]float64{}
		t.hours[employee] = row
		t.employees = append(t.employees, employee)
	}
	if !slices.Contains(t.buckets, bucket) {
		t.buckets = append(t.buckets, bucket)
	}
	row[bucket] += hours
}

func (t *HoursTable) MarkSalaried(employee string) {
	t.salaried[employee] = true
}

func (t *HoursTable) IsSalaried(employee string) bool {
	return t.salaried[employee]
}

func (t *HoursTable) Employees() []string {
	return slices.Clone(t.employees)
}

func (t *HoursTable) Len() int {
	return len(t.employees)
}

// Buckets lists every bucket holding hours, in first-seen order.
func (t *HoursTable) Buckets() []Bucket {
	return slices.Clone(t.buckets)
}

// Hours returns zero for buckets an employee never worked.
func (t *HoursTable) Hours(employee string, bucket Bucket) float64 {
	return t.hours[employee][bucket]
}

func (t *HoursTable) EmployeeTotal(employee string) float64 {
	total := 0.0
	for _, h := range t.hours[employee] {
		total += h
	}
	return total
}

func (t *HoursTable) BucketTotal(bucket Bucket) float64 {
	total := 0.0
	for _, employee := range t.employees {
		total += t.hours[employee][bucket]
	}
	return total
}

func (t *HoursTable) Total() float64 {
	total := 0.0
	for _, employee := range t.employees {
		total += t.EmployeeTotal(employee)
	}
	return total
}

// Subtotal sums hours for an employee over the given buckets only.
func (t *HoursTable) Subtotal(employee string, buckets []Bucket) float64 {
	total := 0.0
	for _, b := range buckets {
		total += t.hours[employee][b]
	}
	return total
}
