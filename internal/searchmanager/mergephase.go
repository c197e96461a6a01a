package searchmanager

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pepmatch/psmsearch/internal/errors"
	"github.com/pepmatch/psmsearch/internal/exchange"
	"github.com/pepmatch/psmsearch/internal/output"
	"github.com/pepmatch/psmsearch/internal/tailfit"
)

// identityTransport is the single-node stand-in for a real Transport: it
// hands a node's own staged files back unchanged. That is only correct
// when there is exactly one rank and nothing actually needs
// redistributing; mergePhase refuses to fall back to it for numranks>1.
type identityTransport struct{}

func (identityTransport) CarryForward(stagingPaths []string) ([]string, error) {
	return stagingPaths, nil
}

// mergePhase is the post-loop global barrier spec.md §4.6 describes:
// redistribute every node's staged files via Transport.CarryForward,
// regroup shards per spectrum, and re-run tail-fit on the merged
// histogram to produce each spectrum's globally correct e-value before
// handing accepted PSMs to the sink.
func (sc *SearchContext) mergePhase(ctx context.Context) error {
	if sc.Ring == nil {
		return nil
	}

	transport := sc.Transport
	if transport == nil {
		if sc.Settings.Exchange.NumRanks > 1 {
			return errors.New(fmt.Errorf("exchange.numranks=%d but no Transport collaborator was supplied", sc.Settings.Exchange.NumRanks)).
				Category(errors.CategoryConfiguration).Component("searchmanager").
				Context("operation", "merge_phase").Build()
		}
		transport = identityTransport{}
	}

	ownPaths, err := stagingPathsFor(sc.Settings.Search.Workspace, sc.Settings.Exchange.Rank)
	if err != nil {
		return err
	}

	redistributed, err := transport.CarryForward(ownPaths)
	if err != nil {
		return errors.New(err).Category(errors.CategoryExchange).Component("searchmanager").
			Context("operation", "carry_forward").Build()
	}

	byBatch := map[int64][]string{}
	for _, path := range redistributed {
		batchNum, err := batchNumFromStagingPath(path)
		if err != nil {
			return err
		}
		byBatch[batchNum] = append(byBatch[batchNum], path)
	}

	batchNums := make([]int64, 0, len(byBatch))
	for b := range byBatch {
		batchNums = append(batchNums, b)
	}
	sort.Slice(batchNums, func(i, j int) bool { return batchNums[i] < batchNums[j] })

	estimator := estimatorFor(sc.Settings)
	for _, batchNum := range batchNums {
		if err := sc.mergeBatch(ctx, batchNum, byBatch[batchNum], estimator); err != nil {
			return err
		}
	}
	return nil
}

// mergeBatch reads every shard's staging file for one batch number,
// groups each spectrum's contributions across shards by its index
// within the batch, and merges each group into a final PSM decision.
func (sc *SearchContext) mergeBatch(ctx context.Context, batchNum int64, paths []string, estimator tailfit.TailEstimator) error {
	var shardsByQ [][]exchange.ShardResult
	for _, path := range paths {
		shard, err := exchange.ReadStaged(path, ringSamplesPerSpectrum)
		if err != nil {
			return err
		}
		if len(shardsByQ) < len(shard.Partials) {
			grown := make([][]exchange.ShardResult, len(shard.Partials))
			copy(grown, shardsByQ)
			shardsByQ = grown
		}
		for q, partial := range shard.Partials {
			shardsByQ[q] = append(shardsByQ[q], exchange.ShardResult{
				Partial:  partial,
				Survival: shard.Survival[q],
			})
		}
	}

	settings := sc.Settings
	for q, shards := range shardsByQ {
		if len(shards) == 0 {
			continue
		}

		topHyperscore := shards[0].Partial.Max
		for _, s := range shards[1:] {
			if s.Partial.Max > topHyperscore {
				topHyperscore = s.Partial.Max
			}
		}

		merged := exchange.Merge(uint32(q), shards, estimator, topHyperscore)
		if sc.Metrics != nil && merged.EValue >= settings.Search.ExpectMax {
			sc.Metrics.TailFitFailures.Inc()
		}
		if merged.EValue > settings.Search.ExpectMax {
			if sc.Metrics != nil {
				sc.Metrics.EValuesRejected.Inc()
			}
			continue
		}
		if sc.Metrics != nil {
			sc.Metrics.EValuesAccepted.Inc()
		}

		// The exchange wire only carries the hyperscore distribution
		// PartialResult names (min/max/max2/N), not full candidate
		// identity, so a merged record cannot report PeptideID, ion
		// counts, or precursor mass the way the single-node path does.
		rec := output.PSMRecord{
			SpectrumID: batchNum*int64(settings.Search.TopMatches) + int64(q),
			Hyperscore: merged.Partial.Max,
			CPSMs:      merged.Partial.N,
			EValue:     merged.EValue,
		}
		if err := sc.Sink.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// stagingPathsFor lists every staging file this rank wrote, across
// every batch it processed.
func stagingPathsFor(workspace string, rank int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(workspace, fmt.Sprintf("*_%d.dat", rank)))
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryExchange).Component("searchmanager").
			Context("operation", "list_staging_paths").Context("workspace", workspace).Build()
	}
	return matches, nil
}

// batchNumFromStagingPath recovers the batch number from a
// {batchNum}_{rank}.dat staging file name.
func batchNumFromStagingPath(path string) (int64, error) {
	base := filepath.Base(path)
	idx := strings.IndexByte(base, '_')
	if idx < 0 {
		return 0, errors.New(fmt.Errorf("staging path %q missing batch separator", path)).
			Category(errors.CategoryExchange).Component("searchmanager").Context("operation", "parse_staging_path").Build()
	}
	batchNum, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return 0, errors.New(err).Category(errors.CategoryExchange).Component("searchmanager").
			Context("operation", "parse_staging_path").Context("path", path).Build()
	}
	return batchNum, nil
}
