package controller

import (
	"go.uber.org/zap"

	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/sections"
)

func (c *Controller) recomputeLocked() menu.Snapshot {
	nodes := menu.Clone(c.template)
	c.fillSectionsLocked(nodes)
	c.applyRulesLocked(nodes)
	c.tracker.Apply(nodes)
	c.counter.Apply(nodes)

	c.stats.Recomputes++
	c.snap = menu.Snapshot{
		Version:      c.snap.Version + 1,
		Route:        c.ctx.Route,
		SuspendDepth: c.counter.Depth(),
		ActiveID:     c.tracker.Active(),
		Nodes:        nodes,
	}
	return cloneSnapshot(c.snap)
}

// fillSectionsLocked replaces the children of section submenus. The
// template children of a section become its trailing entries.
func (c *Controller) fillSectionsLocked(nodes []menu.Node) {
	menu.Walk(nodes, func(path string, n *menu.Node) bool {
		switch n.Section {
		case menu.SectionRecentFiles:
			n.Children = sections.RebuildRecentEntries(c.recent, n.Children)
			return false
		case menu.SectionTemplateGallery:
			gallery, _, _ := sections.RebuildTemplateGallery(c.series, c.catalog)
			n.Children = append(gallery, n.Children...)
			return false
		case menu.SectionNone:
			return true
		default:
			c.log.Warn("unknown menu section", zap.String("path", path), zap.String("section", string(n.Section)))
			return true
		}
	})
}

func (c *Controller) applyRulesLocked(nodes []menu.Node) {
	if c.rules == nil {
		return
	}
	menu.Walk(nodes, func(_ string, n *menu.Node) bool {
		if n.Kind == menu.KindSeparator {
			return false
		}
		enabled, reason := c.rules.Decide(c.ctx, n.ID)
		n.Enabled = enabled
		if !enabled {
			n.DisabledReason = reason
		}
		n.Visible = n.Visible && c.rules.Visible(c.ctx, n.ID)
		return true
	})
}
