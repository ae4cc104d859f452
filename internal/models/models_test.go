package models

import (
	"encoding/json"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-03-15", want: "2024-03-15"},
		{in: " 2024-03-15 ", want: "2024-03-15"},
		{in: "2024-03-15T10:30:00Z", want: "2024-03-15"},
		{in: "2024-03-15T23:30:00.123+02:00", want: "2024-03-15"},
		{in: "not-a-date", wantErr: true},
		{in: "2024-02-30", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Assert(t, err != nil)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, d.String(), tt.want)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 5}
	out, err := json.Marshal(struct {
		Due  *Date `json:"due"`
		None *Date `json:"none"`
	}{Due: &d})
	assert.NilError(t, err)
	assert.Equal(t, string(out), `{"due":"2024-03-05","none":null}`)
}

func TestDate_Scan(t *testing.T) {
	var d Date
	assert.NilError(t, d.Scan("2024-03-15"))
	assert.Equal(t, d, Date{Year: 2024, Month: time.March, Day: 15})

	assert.NilError(t, d.Scan([]byte("2023-12-01")))
	assert.Equal(t, d.String(), "2023-12-01")

	assert.NilError(t, d.Scan(time.Date(2022, time.July, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, d.String(), "2022-07-04")

	assert.Assert(t, is.ErrorContains(d.Scan(42), "cannot scan"))
}

func TestTaskPatch_FieldPresence(t *testing.T) {
	var p TaskPatch
	err := json.Unmarshal([]byte(`{"title":"Ship it","due_date":null,"assigned_to":7}`), &p)
	assert.NilError(t, err)

	assert.Assert(t, p.Title.Set)
	assert.Equal(t, p.Title.Value, "Ship it")

	assert.Assert(t, p.DueDate.Set)
	assert.Assert(t, p.DueDate.Value == nil)

	assert.Assert(t, p.AssignedTo.Set)
	assert.Equal(t, *p.AssignedTo.Value, int64(7))

	assert.Assert(t, !p.Description.Set)
	assert.Assert(t, !p.Status.Set)
	assert.Assert(t, !p.Priority.Set)
}

func TestTaskPatch_IgnoresCreatedBy(t *testing.T) {
	var p TaskPatch
	assert.NilError(t, json.Unmarshal([]byte(`{"title":"x","created_by":99}`), &p))
	assert.Equal(t, p.Title.Value, "x")
}

func TestEnums(t *testing.T) {
	for _, s := range []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusDone} {
		assert.Assert(t, s.Valid(), s)
	}
	assert.Assert(t, !Status("archived").Valid())
	assert.Assert(t, !Status("").Valid())

	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		assert.Assert(t, p.Valid(), p)
	}
	assert.Assert(t, !Priority("urgent").Valid())
}
