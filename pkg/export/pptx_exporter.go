package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// PPTXExporter renders datasets into a minimal OOXML presentation: one title
// slide followed by table slides, paginated to keep rows readable.
type PPTXExporter struct {
	rowsPerSlide int
}

// NewPPTXExporter constructs a PPTX exporter.
func NewPPTXExporter() *PPTXExporter {
	return &PPTXExporter{rowsPerSlide: 12}
}

// Render produces a .pptx package for the dataset.
func (e *PPTXExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pptx requires at least one header")
	}

	pages := e.paginate(data.Rows)
	slides := make([]string, 0, len(pages))
	for _, page := range pages {
		slides = append(slides, slideXML(title, data.Headers, page))
	}
	if len(slides) == 0 {
		slides = append(slides, slideXML(title, data.Headers, nil))
	}

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml":                          contentTypesXML(len(slides)),
		"_rels/.rels":                                  rootRelsXML,
		"ppt/presentation.xml":                         presentationXML(len(slides)),
		"ppt/_rels/presentation.xml.rels":              presentationRelsXML(len(slides)),
		"ppt/slideMasters/slideMaster1.xml":            slideMasterXML,
		"ppt/slideMasters/_rels/slideMaster1.xml.rels": slideMasterRelsXML,
		"ppt/slideLayouts/slideLayout1.xml":            slideLayoutXML,
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels": slideLayoutRelsXML,
	}
	for i, slide := range slides {
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = slide
		parts[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)] = slideRelsXML
	}

	for name, content := range parts {
		f, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create pptx part %s: %w", name, err)
		}
		if _, err := f.Write([]byte(xml.Header + content)); err != nil {
			return nil, fmt.Errorf("write pptx part %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize pptx: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PPTXExporter) paginate(rows []map[string]string) [][]map[string]string {
	per := e.rowsPerSlide
	if per <= 0 {
		per = 12
	}
	var pages [][]map[string]string
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, rows[start:end])
	}
	return pages
}

const drawingNS = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

func contentTypesXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

const rootRelsXML = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`

func presentationXML(slideCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:presentation %s>`, drawingNS)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i+1)
	}
	b.WriteString(`</p:sldIdLst>`)
	b.WriteString(`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func presentationRelsXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

const slideMasterXML = `<p:sldMaster ` + drawingNS + `><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const slideMasterRelsXML = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`

const slideLayoutXML = `<p:sldLayout ` + drawingNS + `><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:overrideClrMapping bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRelsXML = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`

const slideRelsXML = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`

func slideXML(title string, headers []string, rows []map[string]string) string {
	colWidth := 11000000 / len(headers)

	var b strings.Builder
	fmt.Fprintf(&b, `<p:sld %s><p:cSld><p:spTree>`, drawingNS)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)

	if title != "" {
		b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="596000" y="304800"/><a:ext cx="11000000" cy="609600"/></a:xfrm></p:spPr>`)
		fmt.Fprintf(&b, `<p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US" sz="2400" b="1"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, escapeXML(title))
	}

	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="3" name="Table"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`)
	b.WriteString(`<p:xfrm><a:off x="596000" y="1066800"/><a:ext cx="11000000" cy="5029200"/></p:xfrm>`)
	b.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblPr firstRow="1" bandRow="1"/><a:tblGrid>`)
	for range headers {
		fmt.Fprintf(&b, `<a:gridCol w="%d"/>`, colWidth)
	}
	b.WriteString(`</a:tblGrid>`)

	b.WriteString(`<a:tr h="370840">`)
	for _, header := range headers {
		writeTableCell(&b, header, true)
	}
	b.WriteString(`</a:tr>`)

	for _, row := range rows {
		b.WriteString(`<a:tr h="370840">`)
		for _, header := range headers {
			writeTableCell(&b, row[header], false)
		}
		b.WriteString(`</a:tr>`)
	}

	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func writeTableCell(b *strings.Builder, text string, bold bool) {
	boldAttr := "0"
	if bold {
		boldAttr = "1"
	}
	fmt.Fprintf(b, `<a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US" sz="1100" b="%s"/><a:t>%s</a:t></a:r></a:p></a:txBody><a:tcPr/></a:tc>`, boldAttr, escapeXML(text))
}

func escapeXML(raw string) string {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(raw)); err != nil {
		return ""
	}
	return b.String()
}
