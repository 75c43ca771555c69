package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/stayscout/internal/advisor"
	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/internal/logger"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

// Replies the assistant prints without asking the model.
const (
	ResetCommand   = "/reset"
	ResetReply     = "대화를 초기화했습니다."
	NoBookingReply = "예약 가능한 숙소 정보가 없습니다. 먼저 숙소 검색을 진행해 주세요."
	noBookingNote  = "예약 가능한 숙소 정보가 없습니다."
	NoListingsNote = "숙소 정보를 찾지 못했습니다."
	noAnalysis     = "정보 없음"
)

// Searcher runs a listing search for a location.
type Searcher interface {
	Run(ctx context.Context, location string) ([]crawler.Result, error)
}

// Handler answers prompts within a Session.
type Handler struct {
	provider  llm.Provider
	searcher  Searcher
	advisor   *advisor.Advisor
	maxTokens int
}

// NewHandler creates a Handler. Chat replies use provider; search results are
// analysed and summarized with adv.
func NewHandler(provider llm.Provider, searcher Searcher, adv *advisor.Advisor) *Handler {
	if adv == nil && provider != nil {
		adv = advisor.New(provider, advisor.DefaultOptions())
	}
	return &Handler{
		provider:  provider,
		searcher:  searcher,
		advisor:   adv,
		maxTokens: 1024,
	}
}

// Handle answers one prompt, writing everything the user should see to out.
//
// A booking prompt is answered from the session's results. Any other prompt
// gets a streamed chat reply over the whole history, and a search prompt then
// runs a crawl, analyses each listing's photos and, the first time, prints a
// recommendation.
func (h *Handler) Handle(ctx context.Context, sess *Session, prompt string, out io.Writer) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}
	if prompt == ResetCommand {
		sess.Reset()
		_, err := fmt.Fprintln(out, ResetReply)
		return err
	}

	sess.Add(llm.RoleUser, prompt)

	if IsBooking(prompt) {
		return h.book(sess, out)
	}

	if err := h.chat(ctx, sess, out); err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warn("chat reply failed", "session", sess.ID, "error", err)
		fmt.Fprintf(out, "응답 생성 중 오류: %v\n", err)
	}

	if IsSearch(prompt) {
		return h.search(ctx, sess, ExtractLocation(prompt), out)
	}
	return nil
}

func (h *Handler) book(sess *Session, out io.Writer) error {
	bookingURL, ok := sess.BookingURL()
	if !ok {
		sess.Add(llm.RoleAssistant, noBookingNote)
		_, err := fmt.Fprintln(out, NoBookingReply)
		return err
	}

	sess.Add(llm.RoleAssistant, "예약 페이지를 열었습니다: "+bookingURL)
	_, err := fmt.Fprintf(out, "예약 페이지를 여는 중입니다...\n예약할 숙소 바로가기: %s\n", bookingURL)
	return err
}

func (h *Handler) chat(ctx context.Context, sess *Session, out io.Writer) error {
	if h.provider == nil {
		return llm.ErrNoProvider
	}

	history := make([]llm.Message, len(sess.History))
	copy(history, sess.History)

	var streamed strings.Builder
	resp, err := llm.StreamOrExecute(ctx, h.provider, llm.Request{
		Messages:  history,
		MaxTokens: h.maxTokens,
	}, func(chunk string) {
		streamed.WriteString(chunk)
		fmt.Fprint(out, chunk)
	})
	if streamed.Len() > 0 {
		fmt.Fprintln(out)
	}
	if err != nil {
		return err
	}

	reply := resp.Content
	if reply == "" {
		reply = streamed.String()
	}
	sess.Add(llm.RoleAssistant, reply)
	return nil
}

func (h *Handler) search(ctx context.Context, sess *Session, location string, out io.Writer) error {
	if h.searcher == nil {
		return errors.New("no searcher configured")
	}

	fmt.Fprintf(out, "'%s' 지역 숙소를 검색해볼게요.\n", location)
	results, err := h.searcher.Run(ctx, location)
	if err != nil {
		fmt.Fprintf(out, "숙소 검색 실패: %v\n", err)
		return fmt.Errorf("search %s: %w", location, err)
	}

	found := 0
	for _, r := range results {
		if r.OK() {
			found++
		}
	}
	if found == 0 {
		_, err := fmt.Fprintln(out, NoListingsNote)
		return err
	}

	if h.advisor != nil {
		fmt.Fprintln(out, "각 숙소의 이미지들을 분석합니다...")
		for i := range results {
			r := &results[i]
			if !r.OK() || r.ImageAnalysis != "" || len(r.ImageURLs) == 0 {
				continue
			}
			fmt.Fprintf(out, "[%s] 이미지들을 분석 중...\n", r.Title)
			r.ImageAnalysis = h.advisor.AnalyzeImages(ctx, r.ImageURLs)
		}
	}
	sess.Results = results

	if sess.Recommendation != "" || h.advisor == nil {
		return nil
	}
	return h.recommend(ctx, sess, out)
}

func (h *Handler) recommend(ctx context.Context, sess *Session, out io.Writer) error {
	summary, err := h.advisor.Summarize(ctx, crawler.Digests(sess.Results))
	if err != nil {
		fmt.Fprintf(out, "요약 생성 중 오류: %v\n", err)
		return err
	}
	sess.Summary = summary

	recommendation, err := h.advisor.Recommend(ctx, summary)
	if err != nil {
		fmt.Fprintf(out, "추천 생성 중 오류: %v\n", err)
		return err
	}
	sess.Recommendation = recommendation

	var b strings.Builder
	b.WriteString("LLM 추천:\n")
	b.WriteString(recommendation)
	b.WriteString("\n---\n숙소 정보:\n")
	for _, r := range sess.Listings() {
		fmt.Fprintf(&b, "[%s](%s)\n", r.Title, r.SourceURL)
		if len(r.ImageURLs) > 0 {
			fmt.Fprintf(&b, "  대표 이미지: %s\n", r.ImageURLs[0])
		}
		analysis := r.ImageAnalysis
		if analysis == "" {
			analysis = noAnalysis
		}
		fmt.Fprintf(&b, "  AI 분석: %s\n---\n", analysis)
	}
	_, err = io.WriteString(out, b.String())
	return err
}
