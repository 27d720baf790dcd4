package persistence

// EventRecord is the serialized form of an event definition. Field names
// follow the blob format written by the browser front-end.
type EventRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Time        string `json:"time,omitempty"`
	// Date is the anchor date-time in RFC 3339 form.
	Date           string `json:"date"`
	Repeat         string `json:"repeat,omitempty"`
	WeekDays       []int  `json:"weekDays,omitempty"`
	CustomInterval int    `json:"customInterval,omitempty"`
}

// CloneRecords returns a deep copy of records.
func CloneRecords(records []EventRecord) []EventRecord {
	if records == nil {
		return nil
	}
	out := make([]EventRecord, len(records))
	for i, record := range records {
		out[i] = record
		if record.WeekDays != nil {
			out[i].WeekDays = append([]int(nil), record.WeekDays...)
		}
	}
	return out
}
