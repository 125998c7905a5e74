package layout

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Pt converts a size in points to millimeters.
func Pt(v float64) float64 { return v * PtToMm }

// Page geometry, A4 landscape in mm.
const (
	PageWidth  = 297.0
	PageHeight = 210.0
)

// Fixed geometry of cover and content pages (mm unless noted).
const (
	coverMargin     = 20.0
	contentMargin   = 20.0
	bottomMargin    = 20.0
	sidebarWidth    = 15.0
	frameInset      = 10.0
	frameStroke     = 2.0
	titleTop        = 16.0
	titleXBold      = 25.0
	titleX          = 20.0
	separatorY      = 30.0
	separatorStroke = 0.5
	bulletTop       = 40.0
	bulletLineH     = 7.0
	bulletSpacing   = 4.0
	imageTop        = 40.0
	imageHeight     = 110.0
	imagePad        = 2.0
	footerInset     = 15.0
	scrimOpacity    = 0.5
	lineHeightRatio = 1.15

	bulletMarker = "• "
	dateLayout   = "1/2/2006"
)

// Font sizes in mm.
var (
	coverTitleSize = Pt(36)
	coverSmallSize = Pt(14)
	slideTitleSize = Pt(24)
	bodySize       = Pt(14)
	smallSize      = Pt(10)
)
