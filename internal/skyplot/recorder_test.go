package skyplot

import "image/color"

// op is one recorded Surface call.
type op struct {
	kind   string // clear, circle, line, polygon, text
	center Point
	radius float64
	from   Point
	to     Point
	pts    []Point
	text   string
	paint  Paint
	style  TextStyle
	color  color.Color
}

type recorder struct {
	ops []op
}

func (r *recorder) Clear(c color.Color) {
	r.ops = append(r.ops, op{kind: "clear", color: c})
}

func (r *recorder) Circle(center Point, radius float64, p Paint) {
	r.ops = append(r.ops, op{kind: "circle", center: center, radius: radius, paint: p})
}

func (r *recorder) Line(from, to Point, p Paint) {
	r.ops = append(r.ops, op{kind: "line", from: from, to: to, paint: p})
}

func (r *recorder) Polygon(pts []Point, p Paint) {
	r.ops = append(r.ops, op{kind: "polygon", pts: append([]Point(nil), pts...), paint: p})
}

func (r *recorder) Text(s string, at Point, style TextStyle) {
	r.ops = append(r.ops, op{kind: "text", text: s, from: at, style: style})
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, o := range r.ops {
		if o.kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) texts() []string {
	var out []string
	for _, o := range r.ops {
		if o.kind == "text" {
			out = append(out, o.text)
		}
	}
	return out
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
