package applicant

import "time"

// Observer wraps a Reader and records every path read through it. Nested
// records returned by Sub are wrapped as well, so reads deep inside a record
// are logged under their full path. Reads of missing paths still count.
type Observer struct {
	base   Reader
	prefix string
	log    *accessLog
}

type accessLog struct {
	paths []string
	seen  map[string]struct{}
}

// Observe starts a fresh access log over base.
func Observe(base Reader) *Observer {
	if base == nil {
		base = New()
	}
	return &Observer{
		base: base,
		log:  &accessLog{seen: map[string]struct{}{}},
	}
}

// Accessed returns the recorded paths in first-access order.
func (o *Observer) Accessed() []string {
	return append([]string(nil), o.log.paths...)
}

func (o *Observer) record(path string) string {
	full := JoinPath(o.prefix, path)
	if full == "" {
		return full
	}
	if _, ok := o.log.seen[full]; !ok {
		o.log.seen[full] = struct{}{}
		o.log.paths = append(o.log.paths, full)
	}
	return full
}

func (o *Observer) Lookup(path string) (any, bool) {
	o.record(path)
	return o.base.Lookup(path)
}

func (o *Observer) String(path string) string {
	v, _ := o.Lookup(path)
	return asString(v)
}

func (o *Observer) Bool(path string) bool {
	v, _ := o.Lookup(path)
	return asBool(v)
}

func (o *Observer) Int(path string) (int, bool) {
	v, _ := o.Lookup(path)
	return asInt(v)
}

func (o *Observer) Date(path string) (time.Time, bool) {
	v, _ := o.Lookup(path)
	return asDate(v)
}

func (o *Observer) Sub(key string) Reader {
	full := o.record(key)
	return &Observer{base: o.base.Sub(key), prefix: full, log: o.log}
}
