package sitecore

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-sitecore/pkg/pagetree"
	"github.com/goliatone/go-sitecore/pkg/resolver"
)

// View is a page with the data resolved for each of its blocks.
type View struct {
	SessionID string
	Page      *pagetree.Page
	Route     string
	Locale    string
	Params    map[string]string
	Blocks    []BlockView
}

// BlockView pairs a block with its data bag. Fetched values take precedence
// over data the block was declared with.
type BlockView struct {
	Block  *pagetree.Block
	Data   resolver.Bag
	Blocks []BlockView
}

// Load resolves rawPath and fetches the data every block requires. Transport
// failures leave the affected keys absent; only configuration errors and
// ctx cancellation are returned.
func (s *Session) Load(ctx context.Context, rawPath string) (*View, error) {
	match, ok := s.planner.Match(rawPath)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, rawPath)
	}
	view := &View{
		SessionID: s.id,
		Page:      match.Page,
		Route:     match.Route,
		Locale:    match.Locale,
		Params:    match.Params,
	}

	blocks, err := s.loadBlocks(ctx, match.Page, nil, match.Page.Blocks)
	if err != nil {
		return nil, err
	}
	view.Blocks = blocks
	s.logger.Debug("page loaded",
		slog.String("path", rawPath),
		slog.String("route", match.Route),
		slog.Int("blocks", len(blocks)),
	)
	return view, nil
}

func (s *Session) loadBlocks(ctx context.Context, page *pagetree.Page, enclosing []pagetree.Block, blocks []pagetree.Block) ([]BlockView, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	out := make([]BlockView, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range blocks {
		g.Go(func() error {
			block := &blocks[i]
			path := append(append([]pagetree.Block(nil), enclosing...), *block)

			data := resolver.Bag(maps.Clone(block.Data))
			if !block.Requires.IsNone() {
				fetched, err := s.Fetch(gctx, page, path...)
				if err != nil {
					return err
				}
				if data == nil {
					data = resolver.Bag{}
				}
				maps.Copy(data, fetched)
			}

			children, err := s.loadBlocks(gctx, page, path, block.Blocks)
			if err != nil {
				return err
			}
			out[i] = BlockView{Block: block, Data: data, Blocks: children}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
