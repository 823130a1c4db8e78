package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal/data"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

// page geometry in millimeters (A4 portrait)
const (
	marginLeft  float64 = 10
	titleY      float64 = 10
	firstLineY  float64 = 20
	lineSpacing float64 = 10
	pageBottom  float64 = 280
	titleSize   float64 = 16
	lineSize    float64 = 12
	fontFamily  string  = "Helvetica"
)

const (
	TitleDirectory string = "Employee Directory"
	TitleProfile   string = "Employee Profile"
)

// Placement is a single line of text positioned on a page, pages start at 1
type Placement struct {
	Page     int
	X        float64
	Y        float64
	FontSize float64
	Text     string
}

// DirectoryLayout positions the title followed by one line per employee, a
// new page is started once the cursor passes the bottom of the page
func DirectoryLayout(employees []*data.Employee) []Placement {
	page, y := 1, firstLineY
	placements := []Placement{{
		Page:     page,
		X:        marginLeft,
		Y:        titleY,
		FontSize: titleSize,
		Text:     TitleDirectory,
	}}
	for _, employee := range employees {
		if employee == nil {
			continue
		}
		if y > pageBottom {
			page, y = page+1, firstLineY
		}
		placements = append(placements, Placement{
			Page:     page,
			X:        marginLeft,
			Y:        y,
			FontSize: lineSize,
			Text: fmt.Sprintf("%s | %s | %s | %s", employee.FullName,
				employee.Designation, employee.Department, employee.Location),
		})
		y += lineSpacing
	}
	return placements
}

// ProfileLayout positions the title followed by one labeled line per field
func ProfileLayout(employee *data.Employee) []Placement {
	placements := []Placement{{
		Page:     1,
		X:        marginLeft,
		Y:        titleY,
		FontSize: titleSize,
		Text:     TitleProfile,
	}}
	if employee == nil {
		return placements
	}
	for i, field := range [][2]string{
		{"Name", employee.FullName},
		{"Employer ID", employee.EmployerId},
		{"Designation", employee.Designation},
		{"Department", employee.Department},
		{"Location", employee.Location},
		{"Email", employee.Email},
		{"Phone", employee.Phone},
		{"Date of Joining", employee.DateOfJoining},
	} {
		placements = append(placements, Placement{
			Page:     1,
			X:        marginLeft,
			Y:        firstLineY + float64(i)*lineSpacing,
			FontSize: lineSize,
			Text:     field[0] + ": " + field[1],
		})
	}
	return placements
}

// Render hands the placements to the pdf renderer and writes the document
func Render(writer io.Writer, placements []Placement) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreator("go-employee-directory", true)
	translate := doc.UnicodeTranslatorFromDescriptor("")
	for _, placement := range placements {
		for doc.PageNo() < placement.Page {
			doc.AddPage()
		}
		doc.SetFont(fontFamily, "", placement.FontSize)
		doc.Text(placement.X, placement.Y, translate(placement.Text))
	}
	if doc.PageNo() == 0 {
		doc.AddPage()
	}
	if err := doc.Output(writer); err != nil {
		return errors.Wrap(err, "unable to render pdf")
	}
	return nil
}

func Directory(writer io.Writer, employees []*data.Employee) error {
	return Render(writer, DirectoryLayout(employees))
}

func Profile(writer io.Writer, employee *data.Employee) error {
	if employee == nil {
		return errors.New("employee not provided")
	}
	return Render(writer, ProfileLayout(employee))
}

// DirectoryFilename is named after the day of the export
func DirectoryFilename(t time.Time) string {
	return "employee-directory-" + t.Format("2006-01-02") + ".pdf"
}

// ProfileFilename is the employee's name, lowercased with whitespace
// replaced by hyphens
func ProfileFilename(fullName string) string {
	name := strings.Join(strings.Fields(strings.ToLower(fullName)), "-")
	if name == "" {
		name = "employee"
	}
	return name + ".pdf"
}
