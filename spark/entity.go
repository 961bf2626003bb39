package spark

import (
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

// entityRecord is an entity as it appears in entity data, before
// interpretation.
type entityRecord struct {
	Layer      uint32
	Group      uint32
	Class      string
	Properties []sparkclip.Property
}

func readProperty(r *Reader) (p sparkclip.Property, err error) {
	var typ, count uint32
	if r.WideString(&p.Name) ||
		r.Uint32(&typ) ||
		r.Uint32(&count) ||
		r.Uint32(&p.AnimFlag) {
		return p, r.Err()
	}
	p.Type = sparkclip.PropertyType(typ)
	if p.Type == sparkclip.TypeString {
		if r.WideString(&p.Text) {
			return p, r.Err()
		}
		p.Count = count
		return p, nil
	}
	for i := uint32(0); i < count; i++ {
		var v float32
		if r.Float32(&v) {
			return p, r.Err()
		}
		p.Components = append(p.Components, v)
	}
	return p, nil
}

func writeProperty(w *Writer, p sparkclip.Property) error {
	count := uint32(len(p.Components))
	if p.Type == sparkclip.TypeString {
		count = p.Count
		if count == 0 {
			count = 1
		}
	}
	if w.BeginChunk(idProperty) ||
		w.WideString(p.Name) ||
		w.Uint32(uint32(p.Type)) ||
		w.Uint32(count) ||
		w.Uint32(p.AnimFlag) {
		return w.Err()
	}
	if p.Type == sparkclip.TypeString {
		if w.WideString(p.Text) {
			return w.Err()
		}
	} else {
		for _, v := range p.Components {
			if w.Float32(v) {
				return w.Err()
			}
		}
	}
	if w.EndChunk() {
		return w.Err()
	}
	return nil
}

// readEntity reads an entity record. Nested chunks other than properties are
// skipped.
func readEntity(r *Reader) (e entityRecord, warn, err error) {
	if r.Uint32(&e.Layer) || r.Uint32(&e.Group) || r.WideString(&e.Class) {
		return e, nil, r.Err()
	}
	var warns errors.Errors
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			return e, warns.Return(), r.Err()
		}
		if raw.ID != idProperty {
			warns = append(warns, ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrUnknownChunk})
			continue
		}
		p, err := readProperty(raw.Reader())
		if err != nil {
			return e, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
		}
		e.Properties = append(e.Properties, p)
	}
	return e, warns.Return(), r.Err()
}

func vectorProperty(p sparkclip.Property, typ sparkclip.PropertyType, v *vec3.T) error {
	if p.Type != typ || len(p.Components) != 3 {
		return PropertyError{Name: p.Name, Type: uint32(p.Type), Components: uint32(len(p.Components))}
	}
	copy(v[:], p.Components)
	return nil
}

// staticProp interprets a prop_static entity record.
func (e *entityRecord) staticProp() (prop sparkclip.StaticProp, err error) {
	if len(e.Properties) != sparkclip.StaticPropPropertyCount {
		return prop, PropertyCountError{Class: e.Class, Count: len(e.Properties)}
	}
	prop.Layer = e.Layer
	prop.Group = e.Group
	prop.Scale = vec3.T{1, 1, 1}
	for _, p := range e.Properties {
		switch p.Name {
		case sparkclip.PropertyOrigin:
			err = vectorProperty(p, sparkclip.TypeDistance, &prop.Origin)
		case sparkclip.PropertyAngles:
			err = vectorProperty(p, sparkclip.TypeAngles, &prop.Angles)
		case sparkclip.PropertyScale:
			err = vectorProperty(p, sparkclip.TypeVector, &prop.Scale)
		case sparkclip.PropertyModel:
			if p.Type != sparkclip.TypeString || p.Count != 1 {
				err = PropertyError{Name: p.Name, Type: uint32(p.Type), Components: p.Count}
			}
			prop.Model = p.Text
		default:
			prop.Extra = append(prop.Extra, p)
		}
		if err != nil {
			return prop, err
		}
	}
	return prop, nil
}

// propRecord converts a StaticProp back to an entity record.
func propRecord(prop sparkclip.StaticProp) entityRecord {
	e := entityRecord{
		Layer: prop.Layer,
		Group: prop.Group,
		Class: sparkclip.ClassStaticProp,
	}
	e.Properties = append(e.Properties,
		sparkclip.Property{Name: sparkclip.PropertyOrigin, Type: sparkclip.TypeDistance, Components: prop.Origin[:]},
		sparkclip.Property{Name: sparkclip.PropertyAngles, Type: sparkclip.TypeAngles, Components: prop.Angles[:]},
		sparkclip.Property{Name: sparkclip.PropertyScale, Type: sparkclip.TypeVector, Components: prop.Scale[:]},
		sparkclip.Property{Name: sparkclip.PropertyModel, Type: sparkclip.TypeString, Count: 1, Text: prop.Model},
	)
	e.Properties = append(e.Properties, prop.Extra...)
	return e
}

// readEntities reads the content of an entity data chunk following its
// selector. Only prop_static entities are kept.
func readEntities(r *Reader) (props []sparkclip.StaticProp, warn, err error) {
	var warns errors.Errors
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			return nil, warns.Return(), r.Err()
		}
		if raw.ID != idEntity {
			warns = append(warns, ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrUnknownChunk})
			continue
		}
		e, w, err := readEntity(raw.Reader())
		warns = warns.Append(errors.List(w)...)
		if err != nil {
			return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
		}
		if e.Class != sparkclip.ClassStaticProp {
			continue
		}
		prop, err := e.staticProp()
		if err != nil {
			return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
		}
		props = append(props, prop)
	}
	return props, warns.Return(), r.Err()
}

// writeEntities writes props as an entity data chunk.
func writeEntities(w *Writer, props []sparkclip.StaticProp) error {
	if w.BeginChunk(idEntityData) || w.Uint16(selectorEntities) {
		return w.Err()
	}
	for i, prop := range props {
		e := propRecord(prop)
		if len(e.Properties) != sparkclip.StaticPropPropertyCount {
			return ChunkError{Index: i, ID: idEntity, Cause: PropertyCountError{Class: e.Class, Count: len(e.Properties)}}
		}
		if w.BeginChunk(idEntity) ||
			w.Uint32(e.Layer) ||
			w.Uint32(e.Group) ||
			w.WideString(e.Class) {
			return w.Err()
		}
		for _, p := range e.Properties {
			if err := writeProperty(w, p); err != nil {
				return ChunkError{Index: i, ID: idEntity, Cause: err}
			}
		}
		if w.EndChunk() {
			return w.Err()
		}
	}
	if w.EndChunk() {
		return w.Err()
	}
	return nil
}
