package models

import "time"

// Statement is the output of an adapter for one file.
type Statement struct {
	Source  string
	File    string
	Start   time.Time
	End     time.Time
	Records []Record
}
