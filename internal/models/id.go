package models

import "encoding/json"

// ID is a string identifier tolerant of numeric JSON encodings. The backend
// is inconsistent about whether ids arrive as strings or numbers; joins
// performed in the view layer rely on every id normalising to one type.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}
