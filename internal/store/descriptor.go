package store

import (
	"fmt"
	"strings"

	"github.com/roach88/lineage/internal/model"
)

// descriptor holds what differs between kinds: table name, default ID
// prefix, extra indexed columns and the statements built from them.
type descriptor struct {
	kind          model.Kind
	table         string
	defaultPrefix string

	// extraColumns are indexed columns beyond the common four, filled by
	// extraValues.
	extraColumns []string
	extraValues  func(model.Record) []any

	selectByHandle  string
	selectByHumanID string
	insert          string
	update          string
	remove          string
}

var defaultPrefixes = [model.KindCount]string{
	model.KindPerson:     "I",
	model.KindFamily:     "F",
	model.KindSource:     "S",
	model.KindEvent:      "E",
	model.KindMedia:      "O",
	model.KindPlace:      "P",
	model.KindRepository: "R",
	model.KindNote:       "N",
	model.KindCitation:   "C",
}

// descriptors is indexed by model.Kind.
var descriptors = func() [model.KindCount]*descriptor {
	var out [model.KindCount]*descriptor
	for _, k := range model.Kinds {
		d := &descriptor{
			kind:          k,
			table:         k.Table(),
			defaultPrefix: defaultPrefixes[k],
		}
		if k == model.KindPerson {
			d.extraColumns = []string{"given_name", "surname", "gender"}
			d.extraValues = personColumns
		}
		d.buildStatements()
		out[k] = d
	}
	return out
}()

func personColumns(r model.Record) []any {
	p := r.(*model.Person)
	return []any{p.GivenName(), p.PrimarySurname(), p.Gender}
}

func (d *descriptor) buildStatements() {
	cols := append([]string{"handle", "human_id", "order_by"}, d.extraColumns...)
	cols = append(cols, "payload")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	sets := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		sets = append(sets, c+" = ?")
	}

	d.selectByHandle = fmt.Sprintf("SELECT payload FROM %s WHERE handle = ?", d.table)
	d.selectByHumanID = fmt.Sprintf("SELECT handle, payload FROM %s WHERE human_id = ?", d.table)
	d.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.table, strings.Join(cols, ", "), placeholders)
	d.update = fmt.Sprintf("UPDATE %s SET %s WHERE handle = ?", d.table, strings.Join(sets, ", "))
	d.remove = fmt.Sprintf("DELETE FROM %s WHERE handle = ?", d.table)
}

// row builds the column values for r. payload and orderKey are computed by
// the caller.
func (d *descriptor) row(r model.Record, orderKey, payload []byte) Row {
	meta := r.Meta()
	row := Row{
		Handle:   meta.Handle,
		HumanID:  meta.ID,
		OrderKey: orderKey,
		Payload:  payload,
	}
	if d.extraValues != nil {
		row.Extra = d.extraValues(r)
	}
	return row
}
