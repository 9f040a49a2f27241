package resp

import "github.com/flowredis/redispipe/redis"

// TransactionResponse unpacks an EXEC reply into n per-command results,
// replicating a connection-level error into every slot when the whole
// transaction failed before the server could reply per-command.
func TransactionResponse(res interface{}, n int) []interface{} {
	if arr, ok := res.([]interface{}); ok {
		return arr
	}
	if res == nil {
		res = redis.NewErr(redis.ErrKindResult, redis.ErrExecEmpty)
	}
	arr := make([]interface{}, n)
	for i := range arr {
		arr[i] = res
	}
	return arr
}
