package pdf

import "fmt"

// Info summarizes a document.
type Info struct {
	Version string
	Pages   []PageInfo
}

// PageInfo describes one page. Sizes are in points.
type PageInfo struct {
	Width    float64
	Height   float64
	Rotation int
	Images   []ImageInfo
}

// ImageInfo describes an image XObject drawn on a page.
type ImageInfo struct {
	Name   string
	Width  int
	Height int
	Filter string
}

// Inspect parses data and describes every page.
func Inspect(data []byte) (*Info, error) {
	d, err := Load(data)
	if err != nil {
		return nil, err
	}
	return d.Inspect()
}

// Inspect describes every page of d.
func (d *Document) Inspect() (*Info, error) {
	pages, err := d.Pages()
	if err != nil {
		return nil, err
	}
	info := &Info{Version: d.Version(), Pages: make([]PageInfo, 0, len(pages))}
	for _, p := range pages {
		info.Pages = append(info.Pages, d.page(p))
	}
	return info, nil
}

func (d *Document) page(p Dict) PageInfo {
	var pi PageInfo
	if box, ok := d.inherited(p, "MediaBox"); ok && box.Kind == Array && len(box.Array) == 4 {
		x0, _ := d.Resolve(box.Array[0]).Number()
		y0, _ := d.Resolve(box.Array[1]).Number()
		x1, _ := d.Resolve(box.Array[2]).Number()
		y1, _ := d.Resolve(box.Array[3]).Number()
		pi.Width, pi.Height = x1-x0, y1-y0
	}
	if rot, ok := d.inherited(p, "Rotate"); ok && rot.Kind == Int {
		pi.Rotation = int(rot.Int)
	}
	if res, ok := d.inherited(p, "Resources"); ok && res.Kind == Dictionary {
		seen := map[*Object]bool{}
		pi.Images = d.images(res.Dict, seen, 0)
	}
	return pi
}

// inherited looks key up on the page and then on its ancestors.
func (d *Document) inherited(p Dict, key string) (*Object, bool) {
	for depth := 0; p != nil && depth < maxDepth; depth++ {
		if v, ok := p[key]; ok {
			return d.Resolve(v), true
		}
		parent := d.Resolve(p["Parent"])
		if parent.Kind != Dictionary {
			break
		}
		p = parent.Dict
	}
	return nil, false
}

// images lists image XObjects in res, descending into form XObjects.
func (d *Document) images(res Dict, seen map[*Object]bool, depth int) []ImageInfo {
	if depth > maxDepth {
		return nil
	}
	xo := d.Resolve(res["XObject"])
	if xo.Kind != Dictionary {
		return nil
	}
	var out []ImageInfo
	for name, ref := range xo.Dict {
		o := d.Resolve(ref)
		if o.Kind != Stream || seen[o] {
			continue
		}
		seen[o] = true
		switch sub, _ := o.Dict.Name("Subtype"); sub {
		case "Image":
			w, _ := d.Resolve(o.Dict["Width"]).Number()
			h, _ := d.Resolve(o.Dict["Height"]).Number()
			out = append(out, ImageInfo{Name: name, Width: int(w), Height: int(h), Filter: filterName(o.Dict)})
		case "Form":
			if r := d.Resolve(o.Dict["Resources"]); r.Kind == Dictionary {
				out = append(out, d.images(r.Dict, seen, depth+1)...)
			}
		}
	}
	return out
}

func filterName(d Dict) string {
	fs, _ := d.Array("Filter")
	if len(fs) == 0 {
		return ""
	}
	return fs[len(fs)-1].Name
}

// String renders a one-line page summary.
func (p PageInfo) String() string {
	return fmt.Sprintf("%.1fx%.1fpt, %d image(s)", p.Width, p.Height, len(p.Images))
}
