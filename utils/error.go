package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorPermissionDenied maps to a 403 at the API layer.
var ErrorPermissionDenied = errors.New("permission denied")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
