package redis_test

import (
	"errors"
	"fmt"

	"github.com/flowredis/redispipe/redis"
)

func ExampleAsError() {
	vals := []interface{}{
		nil,
		1,
		"hello",
		errors.New("high"),
		redis.NewErrMsg(redis.ErrKindResult, redis.ErrResult, "goodbye"),
	}

	for _, v := range vals {
		fmt.Printf("%T %v => %T %v\n", v, v, redis.AsError(v), redis.AsError(v))
	}

	// Output:
	// <nil> <nil> => <nil> <nil>
	// int 1 => <nil> <nil>
	// string hello => <nil> <nil>
	// *errors.errorString high => *errors.errorString high
	// *redis.Error goodbye (ErrResult) => *redis.Error goodbye (ErrResult)
}
