package report

import (
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/types"
)

// FallbackReport 生成确定性的降级报告。
// 六个小节标题与PDF渲染器识别的标题保持一致。
func FallbackReport(result *types.MatchResult) string {
	var sb strings.Builder

	sb.WriteString("Resume-Job Match Report\n")
	sb.WriteString("----------------------\n")
	sb.WriteString("\n")

	sb.WriteString("1. Overall Match:\n")
	sb.WriteString("   - Score: " + formatScore(result.OverallMatch) + "%\n")
	sb.WriteString("   - Explanation: This score reflects your overall fit for the job based on your skills, experience, and education compared to the job description.\n")
	sb.WriteString("\n")

	sb.WriteString("2. Category Scores:\n")
	sb.WriteString("   - Technical Skills: " + formatScore(result.CategoryScores.TechnicalSkills) + "% (Your technical skills match this percentage of the job requirements.)\n")
	sb.WriteString("   - Soft Skills: " + formatScore(result.CategoryScores.SoftSkills) + "% (Your soft skills match this percentage of the job requirements.)\n")
	sb.WriteString("   - Experience: " + formatScore(result.CategoryScores.Experience) + "% (Your experience matches this percentage of the job requirements.)\n")
	sb.WriteString("   - Education: " + formatScore(result.CategoryScores.Education) + "% (Your education matches this percentage of the job requirements.)\n")
	sb.WriteString("\n")

	sb.WriteString("3. Good Points / Strengths:\n")
	sb.WriteString("   - " + joinOrNone(result.Strengths) + "\n")
	sb.WriteString("\n")

	sb.WriteString("4. Shortcomings / Missing Skills:\n")
	sb.WriteString("   - " + joinOrNone(result.MissingSkills) + "\n")
	sb.WriteString("\n")

	sb.WriteString("5. Recommendations:\n")
	sb.WriteString("   - " + bulletsOrNone(result.Recommendations) + "\n")
	sb.WriteString("\n")

	sb.WriteString("6. Feedback:\n")
	sb.WriteString("   Keep building on your strengths and address the missing skills or experience. Focus on the recommendations above to improve your job fit and increase your chances of success!\n")

	return sb.String()
}
