package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/go-pdf/fpdf"
)

// sectionTitles PDF渲染时识别为小节标题的行
var sectionTitles = map[string]bool{
	"Resume-Job Match Report":        true,
	"1. Overall Match:":              true,
	"2. Category Scores:":            true,
	"3. Good Points / Strengths:":    true,
	"4. Shortcomings / Missing Skills:": true,
	"5. Recommendations:":            true,
	"6. Feedback:":                   true,
}

// RenderPDF 将报告文本渲染为PDF字节流，可附带技能对照表
func RenderPDF(reportText string, table []types.SkillComparisonRow) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFont("Arial", "", 12)

	for _, raw := range strings.Split(reportText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case sectionTitles[line]:
			if line == "Resume-Job Match Report" {
				pdf.SetFont("Arial", "B", 18)
				pdf.CellFormat(0, 12, line, "", 1, "C", false, 0, "")
				pdf.Ln(4)
			} else {
				pdf.SetFont("Arial", "B", 14)
				pdf.CellFormat(0, 10, line, "", 1, "L", false, 0, "")
				pdf.Ln(2)
			}
		case strings.HasPrefix(line, "- "):
			pdf.SetFont("Arial", "", 12)
			pdf.CellFormat(8, 8, "", "", 0, "L", false, 0, "") // 缩进
			pdf.MultiCell(0, 8, line, "", "L", false)
		default:
			pdf.SetFont("Arial", "", 12)
			pdf.MultiCell(0, 8, line, "", "L", false)
		}
	}

	// 附加技能对照表
	if len(table) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "Skill Comparison Table", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(60, 8, "Skill", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, "Required", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, "Present", "1", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		for _, row := range table {
			pdf.CellFormat(60, 8, row.Skill, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 8, yesNo(row.Required), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 8, yesNo(row.Present), "1", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("渲染PDF失败: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
