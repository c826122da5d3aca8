// Package parser extracts spreader-tracking records from TLMS measurement logs.
package parser

import (
	"strconv"
	"time"
)

// Kind is the value type stored in a record column.
type Kind int

const (
	KindTime Kind = iota
	KindInt
	KindText
)

// Field identifies one column of a Record.
type Field int

const (
	FieldTimestamp Field = iota

	// Job metadata
	FieldMeasurementID
	FieldLane
	FieldTask
	FieldPosition
	FieldChassisLength
	FieldChassisType
	FieldContLength
	FieldContWidth
	FieldContHeight
	FieldLaneStatus
	FieldMeasurementStatus
	FieldAssumedTrailer

	// Target geometry
	FieldPointCenterX
	FieldPointCenterY
	FieldPointCenterZ
	FieldSkew
	FieldTilt
	FieldDetectedTL

	// Spreader tracking message
	FieldMsgLength
	FieldMsgX
	FieldMsgY
	FieldMsgZ
	FieldMsgSkew

	// Spreader tracking result
	FieldTLMSStatus
	FieldCalcX
	FieldCalcY
	FieldCalcSkew
	FieldReliability
	FieldEventCode
	FieldEventDesc

	numFields
)

// Record is one logical point-in-time observation. Optional fields are nil
// until a matcher sets them.
type Record struct {
	Timestamp time.Time

	MeasurementID     *string
	Lane              *int
	Task              *string
	Position          *string
	ChassisLength     *string
	ChassisType       *string
	ContLength        *int
	ContWidth         *int
	ContHeight        *int
	LaneStatus        *string
	MeasurementStatus *string
	AssumedTrailer    *string

	PointCenterX *int
	PointCenterY *int
	PointCenterZ *int
	Skew         *int
	Tilt         *int
	DetectedTL   *int

	MsgLength *int
	MsgX      *int
	MsgY      *int
	MsgZ      *int
	MsgSkew   *int

	TLMSStatus  *int
	CalcX       *int
	CalcY       *int
	CalcSkew    *int
	Reliability *int
	EventCode   *int
	EventDesc   *string
}

type fieldSpec struct {
	name string
	kind Kind
	ints func(*Record) **int
	text func(*Record) **string
}

// fieldSpecs is indexed by Field and fixes the export column order.
var fieldSpecs = [numFields]fieldSpec{
	FieldTimestamp:         {name: "Timestamp", kind: KindTime},
	FieldMeasurementID:     {name: "Measurement_ID", kind: KindText, text: func(r *Record) **string { return &r.MeasurementID }},
	FieldLane:              {name: "Lane", kind: KindInt, ints: func(r *Record) **int { return &r.Lane }},
	FieldTask:              {name: "Task", kind: KindText, text: func(r *Record) **string { return &r.Task }},
	FieldPosition:          {name: "Position", kind: KindText, text: func(r *Record) **string { return &r.Position }},
	FieldChassisLength:     {name: "Chassis_length", kind: KindText, text: func(r *Record) **string { return &r.ChassisLength }},
	FieldChassisType:       {name: "Chassis_type", kind: KindText, text: func(r *Record) **string { return &r.ChassisType }},
	FieldContLength:        {name: "Cont_Length", kind: KindInt, ints: func(r *Record) **int { return &r.ContLength }},
	FieldContWidth:         {name: "Cont_Width", kind: KindInt, ints: func(r *Record) **int { return &r.ContWidth }},
	FieldContHeight:        {name: "Cont_Height", kind: KindInt, ints: func(r *Record) **int { return &r.ContHeight }},
	FieldLaneStatus:        {name: "Lane_Status", kind: KindText, text: func(r *Record) **string { return &r.LaneStatus }},
	FieldMeasurementStatus: {name: "Measurement_Status", kind: KindText, text: func(r *Record) **string { return &r.MeasurementStatus }},
	FieldAssumedTrailer:    {name: "Assumed_trailer", kind: KindText, text: func(r *Record) **string { return &r.AssumedTrailer }},
	FieldPointCenterX:      {name: "Point_Center_X", kind: KindInt, ints: func(r *Record) **int { return &r.PointCenterX }},
	FieldPointCenterY:      {name: "Point_Center_Y", kind: KindInt, ints: func(r *Record) **int { return &r.PointCenterY }},
	FieldPointCenterZ:      {name: "Point_Center_Z", kind: KindInt, ints: func(r *Record) **int { return &r.PointCenterZ }},
	FieldSkew:              {name: "Skew", kind: KindInt, ints: func(r *Record) **int { return &r.Skew }},
	FieldTilt:              {name: "Tilt", kind: KindInt, ints: func(r *Record) **int { return &r.Tilt }},
	FieldDetectedTL:        {name: "Nr_of_detected_TL", kind: KindInt, ints: func(r *Record) **int { return &r.DetectedTL }},
	FieldMsgLength:         {name: "SpTrMsg_length", kind: KindInt, ints: func(r *Record) **int { return &r.MsgLength }},
	FieldMsgX:              {name: "SpTrMsg_position_X", kind: KindInt, ints: func(r *Record) **int { return &r.MsgX }},
	FieldMsgY:              {name: "SpTrMsg_position_Y", kind: KindInt, ints: func(r *Record) **int { return &r.MsgY }},
	FieldMsgZ:              {name: "SpTrMsg_position_Z", kind: KindInt, ints: func(r *Record) **int { return &r.MsgZ }},
	FieldMsgSkew:           {name: "SpTrMsg_position_Skew", kind: KindInt, ints: func(r *Record) **int { return &r.MsgSkew }},
	FieldTLMSStatus:        {name: "SpTrRes_TLMS_Status", kind: KindInt, ints: func(r *Record) **int { return &r.TLMSStatus }},
	FieldCalcX:             {name: "SpTrRes_calc_X", kind: KindInt, ints: func(r *Record) **int { return &r.CalcX }},
	FieldCalcY:             {name: "SpTrRes_calc_Y", kind: KindInt, ints: func(r *Record) **int { return &r.CalcY }},
	FieldCalcSkew:          {name: "SpTrRes_calc_Skew", kind: KindInt, ints: func(r *Record) **int { return &r.CalcSkew }},
	FieldReliability:       {name: "SpTrRes_Reliability", kind: KindInt, ints: func(r *Record) **int { return &r.Reliability }},
	FieldEventCode:         {name: "SpTrRes_Event_code", kind: KindInt, ints: func(r *Record) **int { return &r.EventCode }},
	FieldEventDesc:         {name: "SpTrRes_Event_desc", kind: KindText, text: func(r *Record) **string { return &r.EventDesc }},
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, numFields)
	for f := Field(0); f < numFields; f++ {
		m[fieldSpecs[f].name] = f
	}
	return m
}()

// Fields returns every column in export order, Timestamp first.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// FieldByName looks up a column by its export name (e.g. "SpTrMsg_position_Z").
func FieldByName(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// String returns the export column name.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldSpecs[f].name
}

// Kind returns the value type held by the column.
func (f Field) Kind() Kind {
	return fieldSpecs[f].kind
}

// Value is a single typed cell.
type Value struct {
	Kind Kind
	Int  int
	Text string
	Time time.Time
}

// String renders the cell the way the CSV export writes it.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindTime:
		if v.Time.IsZero() {
			return ""
		}
		return FormatTimestamp(v.Time, minimalDigits(v.Time))
	default:
		return v.Text
	}
}

// Value returns the cell for f and whether it is set. Timestamp counts as set
// when it is non-zero.
func (r Record) Value(f Field) (Value, bool) {
	spec := fieldSpecs[f]
	switch spec.kind {
	case KindTime:
		return Value{Kind: KindTime, Time: r.Timestamp}, !r.Timestamp.IsZero()
	case KindInt:
		p := *spec.ints(&r)
		if p == nil {
			return Value{Kind: KindInt}, false
		}
		return Value{Kind: KindInt, Int: *p}, true
	default:
		p := *spec.text(&r)
		if p == nil {
			return Value{Kind: KindText}, false
		}
		return Value{Kind: KindText, Text: *p}, true
	}
}

// Has reports whether f is set on the record.
func (r Record) Has(f Field) bool {
	_, ok := r.Value(f)
	return ok
}

// Int returns an integer column.
func (r Record) Int(f Field) (int, bool) {
	v, ok := r.Value(f)
	if !ok || v.Kind != KindInt {
		return 0, false
	}
	return v.Int, true
}

// Text returns a text column.
func (r Record) Text(f Field) (string, bool) {
	v, ok := r.Value(f)
	if !ok || v.Kind != KindText {
		return "", false
	}
	return v.Text, true
}

// FieldCount returns the number of optional fields that are set.
func (r Record) FieldCount() int {
	n := 0
	for f := FieldTimestamp + 1; f < numFields; f++ {
		if r.Has(f) {
			n++
		}
	}
	return n
}

// Merge copies the optional fields set on src into r and returns how many
// were copied. Without overwrite a field already set on r keeps its value.
// The timestamp is never touched.
func (r *Record) Merge(src *Record, overwrite bool) int {
	n := 0
	for f := FieldTimestamp + 1; f < numFields; f++ {
		spec := fieldSpecs[f]
		switch spec.kind {
		case KindInt:
			dst, from := spec.ints(r), *spec.ints(src)
			if from != nil && (*dst == nil || overwrite) {
				v := *from
				*dst = &v
				n++
			}
		case KindText:
			dst, from := spec.text(r), *spec.text(src)
			if from != nil && (*dst == nil || overwrite) {
				v := *from
				*dst = &v
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy that shares no pointers with r.
func (r *Record) Clone() Record {
	out := Record{Timestamp: r.Timestamp}
	out.Merge(r, false)
	return out
}

// Ptr returns a pointer to v. It keeps record literals short.
func Ptr[T any](v T) *T {
	return &v
}
