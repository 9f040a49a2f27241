package redis

// ScanResponse parses the two-element array reply of SCAN/HSCAN/SSCAN/
// ZSCAN into the next cursor and the page of keys, backing the Scanner
// cursor helper.
func ScanResponse(res interface{}) ([]byte, []string, error) {
	if err := AsError(res); err != nil {
		return nil, nil, err
	}
	var ok bool
	var arr []interface{}
	var it []byte
	var keys []interface{}
	var strs []string
	if arr, ok = res.([]interface{}); !ok {
		goto wrong
	}
	if it, ok = arr[0].([]byte); !ok {
		goto wrong
	}
	if keys, ok = arr[1].([]interface{}); !ok {
		goto wrong
	}
	strs = make([]string, len(keys))
	for i, k := range keys {
		var b []byte
		if b, ok = k.([]byte); !ok {
			goto wrong
		}
		strs[i] = string(b)
	}
	return it, strs, nil

wrong:
	return nil, nil, NewErr(ErrKindResponse, ErrResponseUnexpected).With("response", res)
}

// TransactionResponse unpacks the array reply of EXEC into its
// per-command results.
func TransactionResponse(res interface{}) ([]interface{}, error) {
	if arr, ok := res.([]interface{}); ok {
		return arr, nil
	}
	if res == nil {
		res = NewErr(ErrKindResult, ErrExecEmpty)
	}
	if _, ok := res.(error); !ok {
		res = NewErr(ErrKindResponse, ErrResponseUnexpected).With("response", res)
	}
	return nil, res.(error)
}
