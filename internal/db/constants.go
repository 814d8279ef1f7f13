package db

// Timestamp layouts used for TEXT time columns.
const (
	sqlTimeLayout = "2006-01-02 15:04:05"
	sqlDateLayout = "2006-01-02"
)
