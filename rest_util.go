package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

var VALIDATE = validator.New()

func ReadRequestBody[T any](r *http.Request) (T, error) {
	var req T
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, err
	}
	return req, nil
}

func WriteResponse[T any](w http.ResponseWriter, resp T, status int) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type Result struct {
	result any
	status int
}

func OK[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusOK,
	}
}

func BadRequest[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusBadRequest,
	}
}

func NotFound[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusNotFound,
	}
}

func _WriteResult(w http.ResponseWriter, method string, path string, res Result) {
	if res.status != http.StatusOK {
		slog.Error(fmt.Sprintf("failed %v %v: %v", method, path, res.result))
		WriteResponse(w, NewErrorResponse(path, res.result), res.status)
	} else {
		slog.Debug(fmt.Sprintf("successfully finished %v %v", method, path))
		WriteResponse(w, res.result, res.status)
	}
}

func MapPost[F any](app *httprouter.Router, path string, handler func(F) Result) {
	app.POST(path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		slog.Debug("POST " + path)
		body, err := ReadRequestBody[F](r)
		if err != nil {
			_WriteResult(w, "POST", path, BadRequest(err.Error()))
			return
		}
		if err := VALIDATE.Struct(body); err != nil {
			_WriteResult(w, "POST", path, BadRequest(err.Error()))
			return
		}
		_WriteResult(w, "POST", path, handler(body))
	})
}

// MapGet binds the query parameters to the json tagged fields of F.
func MapGet[F any](app *httprouter.Router, path string, handler func(F) Result) {
	var val F
	typ := reflect.TypeOf(val)
	num_field := typ.NumField()
	fields := NewList[Triple[int, string, reflect.Kind]](num_field)
	for i := 0; i < num_field; i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" {
			continue
		}
		switch field.Type.Kind() {
		case reflect.Bool:
			fields.Add(MakeTriple(i, tag, reflect.Bool))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fields.Add(MakeTriple(i, tag, reflect.Int))
		case reflect.Float32, reflect.Float64:
			fields.Add(MakeTriple(i, tag, reflect.Float64))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fields.Add(MakeTriple(i, tag, reflect.Uint))
		case reflect.String:
			fields.Add(MakeTriple(i, tag, reflect.String))
		}
	}
	app.GET(path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		slog.Debug("GET " + path)
		query := r.URL.Query()
		t := reflect.New(typ).Elem()
		for _, field := range fields {
			index := field.A
			name := field.B
			kind := field.C
			value := query.Get(name)
			if value == "" {
				continue
			}
			f := t.Field(index)
			var err error
			switch kind {
			case reflect.Bool:
				var b bool
				b, err = strconv.ParseBool(value)
				f.SetBool(b)
			case reflect.Int:
				var num int64
				num, err = strconv.ParseInt(value, 10, 64)
				f.SetInt(num)
			case reflect.Uint:
				var num uint64
				num, err = strconv.ParseUint(value, 10, 64)
				f.SetUint(num)
			case reflect.Float64:
				var num float64
				num, err = strconv.ParseFloat(value, 64)
				f.SetFloat(num)
			case reflect.String:
				f.SetString(value)
			}
			if err != nil {
				_WriteResult(w, "GET", path, BadRequest(fmt.Sprintf("invalid value %q for %v", value, name)))
				return
			}
		}
		value := t.Interface().(F)
		if err := VALIDATE.Struct(value); err != nil {
			_WriteResult(w, "GET", path, BadRequest(err.Error()))
			return
		}
		_WriteResult(w, "GET", path, handler(value))
	})
}
