package classify

// OriginKeywords is the origin-country gazetteer, matched by substring.
var OriginKeywords = []string{
	"에티오피아",
	"콜롬비아",
	"코스타리카",
	"케냐",
	"파나마",
	"과테말라",
	"온두라스",
	"엘살바도르",
	"브라질",
	"인도네시아",
	"예멘",
	"르완다",
	"부룬디",
	"탄자니아",
}

// ProcessingPatterns lists specific methods before the generic ones they contain.
var ProcessingPatterns = []Pattern{
	pattern("레드 허니", `레드\s*허니`),
	pattern("화이트 허니", `화이트\s*허니`),
	pattern("풀리 워시드", `풀리\s*워시드`),
	pattern("언에어로빅", `언에어로빅|anaerobic`),
	pattern("슈가케인 EA", `슈가케인|sugar\s*cane|\bEA\b`),
	pattern("워시드", `워시드|washed`),
	pattern("내추럴", `내추럴|natural`),
	pattern("허니", `허니|honey`),
	pattern("디카페인", `디카페인|decaf`),
	pattern("ASD", `\bASD\b`),
}

var VarietyPatterns = []Pattern{
	pattern("게이샤", `게이샤|geisha`),
	pattern("SL28", `\bSL28\b`),
	pattern("SL34", `\bSL34\b`),
	pattern("카투아이", `카투아이|catuai`),
	pattern("버번", `핑크\s*버번|버번|bourbon`),
	pattern("자바", `자바|java`),
}

var NotePatterns = []Pattern{
	pattern("베리", `베리|berry`),
	pattern("과일", `과일|fruit`),
	pattern("복숭아", `복숭아|peach`),
	pattern("꽃", `꽃|flower|blossom`),
	pattern("너티", `너티|nutty|nut`),
	pattern("초콜릿", `초코|초콜릿|choco|chocolate`),
	pattern("자스민", `자스민|jasmine`),
	pattern("오렌지", `오렌지|orange`),
	pattern("체리", `체리|cherry`),
}
