package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mspro-labs/bean-scout/internal/models"
)

const unspecialtyFixture = `<html><head>
<title>에티오피아 구지 샤키소 : 언스페셜티</title>
<link rel="canonical" href="https://unspecialty.com/product/guji/390/">
<meta name="description" content="구지 샤키소 내추럴">
<meta property="og:image" content="//unspecialty.com/web/product/big/main.jpg">
<meta property="product:price:amount" content="21000">
<meta property="product:price:currency" content="KRW">
<script type="application/ld+json">{ broken</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[{"@type":"WebSite","name":"site"},
 {"@type":["Product"],"name":"LD 이름","image":["/web/product/ld.jpg","/web/product/big/main.jpg"],
  "offers":[{"@type":"Offer","name":"에티오피아 구지 샤키소 - 내추럴 - 200g","price":21000,"priceCurrency":"KRW"},
            {"@type":"Offer","name":"에티오피아 구지 샤키소 - 게이샤 워시드 - 500g","price":48000}]}]}
</script>
</head><body>
<div id="uns-info">
  <div class="headingArea"><h2> 에티오피아 구지 샤키소 </h2></div>
  <div class="xans-product-detaildesign"><table>
    <tr><th>원산지</th><td>에티오피아</td></tr>
    <tr><th>고도</th><td> 2,100m </td></tr>
    <tr><th>빈칸</th><td></td></tr>
  </table></div>
</div>
<div class="imgArea"><img src="" ec-data-src="/web/product/extra/a.jpg"><img src="/web/product/extra/b.jpg"></div>
<select id="product_option_id1">
  <option>- [필수] 옵션을 선택해 주세요 -</option>
  <option>-------------------</option>
  <option>내추럴 - 200g</option>
  <option>분쇄도 가이드</option>
</select>
<div id="prdDetail"><p>복숭아   와 베리</p><img src="/web/upload/detail.jpg"></div>
</body></html>`

func loadDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestIsUnspecialtyURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://unspecialty.com/product/detail.html?product_no=390", true},
		{"https://www.unspecialty.com/product/detail.html?product_no=", true},
		{"https://unspecialty.com/product/detail.html", false},
		{"https://unspecialty.com/product/list.html?product_no=390", false},
		{"https://shop.unspecialty.com/product/detail.html?product_no=390", false},
		{"https://example.com/product/detail.html?product_no=390", false},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, IsUnspecialtyURL(u), tt.raw)
	}
}

func TestExtractUnspecialtyPage(t *testing.T) {
	const target = "https://unspecialty.com/product/detail.html?product_no=390"
	page := ExtractUnspecialtyPage(loadDoc(t, unspecialtyFixture), target)

	assert.Equal(t, "에티오피아 구지 샤키소", page.ProductName)
	assert.Equal(t, "21000", page.Price)
	assert.Equal(t, "KRW", page.Currency)
	assert.Equal(t, "https://unspecialty.com/product/guji/390/", page.CanonicalURL)
	require.NotNil(t, page.ProductNo)
	assert.Equal(t, int64(390), *page.ProductNo)

	assert.Equal(t, []string{
		"https://unspecialty.com/web/product/big/main.jpg",
		"https://unspecialty.com/web/product/extra/a.jpg",
		"https://unspecialty.com/web/product/extra/b.jpg",
		"https://unspecialty.com/web/upload/detail.jpg",
		"https://unspecialty.com/web/product/ld.jpg",
	}, page.Images)

	assert.Equal(t, []models.InfoRow{
		{Key: "원산지", Value: "에티오피아"},
		{Key: "고도", Value: "2,100m"},
	}, page.InfoTable)
	assert.Equal(t, "복숭아 와 베리", page.DetailText)
	assert.Len(t, page.OfferOptions, 2)
	assert.Len(t, page.SelectOptions, 4)
}

func TestExtractUnspecialtyPage_ImageCap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><div class="imgArea">`)
	for i := 0; i < 60; i++ {
		b.WriteString(`<img src="/img/`)
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(`.jpg">`)
	}
	b.WriteString(`</div></body></html>`)

	page := ExtractUnspecialtyPage(loadDoc(t, b.String()), "https://unspecialty.com/product/detail.html?product_no=1")
	assert.Len(t, page.Images, 40)
	require.NotNil(t, page.ProductNo)
	assert.Equal(t, int64(1), *page.ProductNo)
}

func TestBuildUnspecialtyResult(t *testing.T) {
	const target = "https://unspecialty.com/product/detail.html?product_no=390"
	page := ExtractUnspecialtyPage(loadDoc(t, unspecialtyFixture), target)
	res := BuildUnspecialtyResult(target, page)

	assert.Equal(t, target, res.SourceURL)
	assert.Equal(t, "https://unspecialty.com/product/guji/390/", res.CanonicalURL)
	assert.Equal(t, []string{"내추럴", "게이샤 워시드"}, res.CoffeeOptions)
	assert.Equal(t, []string{"워시드", "내추럴"}, res.Processing)
	assert.Equal(t, []string{"게이샤"}, res.Varieties)
	assert.Empty(t, res.Origins)
	assert.Nil(t, res.CoffeeCrawl.Origin)

	crawl := res.CoffeeCrawl
	assert.Equal(t, models.PageProduct, crawl.PageType)
	assert.Equal(t, "에티오피아 구지 샤키소 : 언스페셜티", models.Deref(crawl.Title))
	assert.Equal(t, "21,000원", models.Deref(crawl.Price))
	assert.Nil(t, crawl.NameEN)
	assert.Len(t, crawl.Images, 5)
	require.NotNil(t, res.DetailTextExcerpt)
}

func TestBuildUnspecialtyResult_CanonicalFallsBackToInput(t *testing.T) {
	const target = "https://unspecialty.com/product/detail.html?product_no=7"
	res := BuildUnspecialtyResult(target, &UnspecialtyPage{ProductName: "케냐 AA"})
	assert.Equal(t, target, res.CanonicalURL)
	assert.Equal(t, "케냐 AA", models.Deref(res.CoffeeCrawl.Title))
	assert.Equal(t, []string{}, res.CoffeeOptions)
	assert.Nil(t, res.CoffeeCrawl.Images)
	assert.Nil(t, res.CoffeeCrawl.Notes)
	assert.Nil(t, res.DetailTextExcerpt)
}

type fakeSession struct {
	html    string
	err     error
	closed  *atomic.Int32
	blockOn bool
}

func (s *fakeSession) Render(ctx context.Context, _ string) (string, error) {
	if s.blockOn {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.html, s.err
}

func (s *fakeSession) Close() error {
	s.closed.Add(1)
	return nil
}

type fakeRenderer struct {
	session *fakeSession
	openErr error
}

func (r *fakeRenderer) Open(context.Context) (Session, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.session, nil
}

func TestRenderUnspecialty_ClosesSessionOnce(t *testing.T) {
	const target = "https://unspecialty.com/product/detail.html?product_no=390"

	t.Run("success", func(t *testing.T) {
		var closed atomic.Int32
		r := &fakeRenderer{session: &fakeSession{html: unspecialtyFixture, closed: &closed}}
		page, err := RenderUnspecialty(context.Background(), r, target)
		require.NoError(t, err)
		assert.Equal(t, "에티오피아 구지 샤키소", page.ProductName)
		assert.Equal(t, int32(1), closed.Load())
	})

	t.Run("render error", func(t *testing.T) {
		var closed atomic.Int32
		r := &fakeRenderer{session: &fakeSession{err: errors.New("net::ERR_TIMED_OUT"), closed: &closed}}
		_, err := RenderUnspecialty(context.Background(), r, target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrRender))
		assert.Equal(t, int32(1), closed.Load())
	})

	t.Run("cancelled", func(t *testing.T) {
		var closed atomic.Int32
		r := &fakeRenderer{session: &fakeSession{blockOn: true, closed: &closed}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RenderUnspecialty(ctx, r, target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, int32(1), closed.Load())
	})

	t.Run("open error", func(t *testing.T) {
		r := &fakeRenderer{openErr: errors.New("chrome not found")}
		_, err := RenderUnspecialty(context.Background(), r, target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrRender))
	})
}
