package simhost

import "github.com/sarchlab/streamprefetch/prefetcher"

// TaggingCore wraps an Engine so that any PrefetchLine call it makes
// while OnAccess is running gets tagged with issuer on the shared Cache.
// It satisfies selector.Core structurally; simhost never imports
// selector, so wiring stays one-way (cmd imports both).
type TaggingCore struct {
	Engine *prefetcher.Engine
	Cache  *Cache
	Issuer prefetcher.Metadata
}

// OnAccess implements selector.Core.
func (c *TaggingCore) OnAccess(
	addr prefetcher.BlockNumber, ip uint64, hit bool, usefulPrefetch bool,
	accessType prefetcher.AccessType, metadataIn prefetcher.Metadata,
) prefetcher.Metadata {
	c.Cache.SetActiveIssuer(c.Issuer)
	defer c.Cache.SetActiveIssuer(0)

	return c.Engine.OnAccess(addr, ip, hit, usefulPrefetch, accessType, metadataIn)
}

// OnFill implements selector.Core.
func (c *TaggingCore) OnFill(
	addr prefetcher.BlockNumber, set, way int, wasPrefetch bool,
	evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata,
) prefetcher.Metadata {
	return c.Engine.OnFill(addr, set, way, wasPrefetch, evictedAddr, metadataIn)
}

// OnCycle implements selector.Core.
func (c *TaggingCore) OnCycle() { c.Engine.OnCycle() }

// FinalStats implements selector.Core.
func (c *TaggingCore) FinalStats() prefetcher.Stats { return c.Engine.FinalStats() }
