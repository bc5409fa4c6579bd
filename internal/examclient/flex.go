package examclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The exam backend is PHP and serialises numeric columns either as JSON numbers
// or as quoted strings depending on the driver. These types accept both.

type flexInt int64

func (v *flexInt) UnmarshalJSON(data []byte) error {
	raw, isNull, err := unquoteNumber(data)
	if err != nil || isNull {
		*v = 0
		return err
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// "30.0" shows up for integer columns cast through float.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("invalid integer %q", raw)
		}
		parsed = int64(f)
	}
	*v = flexInt(parsed)
	return nil
}

type flexFloat float64

func (v *flexFloat) UnmarshalJSON(data []byte) error {
	raw, isNull, err := unquoteNumber(data)
	if err != nil || isNull {
		*v = 0
		return err
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*v = flexFloat(parsed)
	return nil
}

func unquoteNumber(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", true, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", true, nil
		}
		return s, false, nil
	}
	return string(data), false, nil
}
