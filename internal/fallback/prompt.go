package fallback

import (
	"fmt"
	"strings"

	"mspro-labs/bean-scout/internal/models"
)

// PromptInput is everything the instruction is built from.
type PromptInput struct {
	URL      string
	Title    string
	PageType models.PageType
	Images   []string
	Text     string
}

// BuildPrompt renders the single instruction sent to the model.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString("다음은 특정 웹페이지에서 추출한 텍스트입니다. 페이지 유형(Page Type)에 맞춰 커피 관련 정보를 스키마에 따라 구조화하세요.\n\n")
	b.WriteString("요구사항:\n")
	b.WriteString("- 스키마(coffee_extraction)를 반드시 준수하여 JSON 객체로만 응답하세요.\n")
	b.WriteString("- 불확실한 필드는 null 로 두세요.\n")
	b.WriteString("- notes 는 가능한 한 표준화된 표현으로 배열로 작성하세요.\n")
	b.WriteString("- images 는 가능한 경우 제공된 대표 이미지 URL 목록에서 선택하세요.\n")
	b.WriteString("- page_type 은 입력으로 주어진 값을 그대로 사용하세요.\n")
	fmt.Fprintf(&b, "- source_url 은 반드시 입력 URL(%s)을 그대로 설정하세요.\n\n", in.URL)
	fmt.Fprintf(&b, "입력 URL: %s\n", in.URL)
	fmt.Fprintf(&b, "페이지 제목: %s\n", in.Title)
	fmt.Fprintf(&b, "페이지 타입: %s\n", in.PageType)
	fmt.Fprintf(&b, "대표 이미지 후보: %s\n", strings.Join(in.Images, ", "))
	fmt.Fprintf(&b, "텍스트(일부):\n%s", in.Text)
	return b.String()
}
