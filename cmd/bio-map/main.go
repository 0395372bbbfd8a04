package main

/*
bio-map maps long reads against a reference index, minimap2-style: seed,
chain, select primary/secondary mappings, and optionally align, writing PAF
or SAM.
*/

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/biogo/hts/sam"

	"github.com/grailbio/bio/mapper"
	"github.com/grailbio/bio/mapper/align"
	"github.com/grailbio/bio/mapper/index/memindex"
	"github.com/grailbio/bio/mapper/lcmask"
	"github.com/grailbio/bio/mapper/mapout"
	"github.com/grailbio/bio/mapper/mapperpb"
	"github.com/grailbio/bio/mapper/pipeline"
	"github.com/grailbio/bio/mapper/query"
	"github.com/grailbio/bio/mapper/seqio"
	"github.com/grailbio/bio/mapper/sketch"
)

var (
	indexPath = flag.String("index", "", "Path to a bio-map index file (required)")
	queryPath = flag.String("query", "", "Path to a FASTA/FASTQ query file; '-' or empty reads stdin")
	fastq     = flag.Bool("fastq", false, "Parse -query as FASTQ instead of FASTA")
	outPath   = flag.String("out", "", "Output path; empty writes stdout")
	debugLog  = flag.String("debug-log", "", "Path to write a gogo-protobuf batch log of every mapped mini-batch (SPEC_FULL.md §3); empty disables it")

	nThreads      = flag.Int("t", 4, "Worker goroutines")
	miniBatchSize = flag.Int("mini-batch-size", mapper.DefaultOptions().MiniBatchSize, "Queries read per mini-batch")

	maxOccFrac = flag.Float64("max-occ-frac", mapper.DefaultOptions().MaxOccFrac, "Occurrence-quantile cutoff above which a minimizer is dropped entirely")
	midOccFrac = flag.Float64("mid-occ-frac", mapper.DefaultOptions().MidOccFrac, "Occurrence-quantile cutoff above which a minimizer contributes no anchors")
	sdustThres = flag.Int("sdust-thres", mapper.DefaultOptions().SdustThres, "Low-complexity masking threshold; 0 disables masking")

	minCnt        = flag.Int("min-cnt", mapper.DefaultOptions().MinCnt, "Minimum anchors per emitted chain")
	minChainScore = flag.Int("min-chain-score", mapper.DefaultOptions().MinChainScore, "Minimum chain score")
	bw            = flag.Int("bw", mapper.DefaultOptions().Bw, "Chaining bandwidth: max |dr-dq| between consecutive anchors")
	maxGap        = flag.Int("max-gap", mapper.DefaultOptions().MaxGap, "Max reference or query gap between consecutive anchors")
	maxChainSkip  = flag.Int("max-chain-skip", mapper.DefaultOptions().MaxChainSkip, "Chaining lookback budget after consecutive scoring failures")

	maskLevel = flag.Float64("mask-level", mapper.DefaultOptions().MaskLevel, "Query-interval overlap fraction that makes a chain a child")
	priRatio  = flag.Float64("pri-ratio", mapper.DefaultOptions().PriRatio, "Minimum score ratio to the parent for a chain to be kept as secondary")
	bestN     = flag.Int("best-n", mapper.DefaultOptions().BestN, "Max chains kept per primary/secondary family")

	maxJoinLong    = flag.Int("max-join-long", mapper.DefaultOptions().MaxJoinLong, "Max gap allowed when both flanking chains are well supported")
	maxJoinShort   = flag.Int("max-join-short", mapper.DefaultOptions().MaxJoinShort, "Max gap allowed unconditionally")
	minJoinFlankSc = flag.Int("min-join-flank-sc", mapper.DefaultOptions().MinJoinFlankSc, "Flanking score threshold unlocking max-join-long")

	matchScore  = flag.Int("a", mapper.DefaultOptions().MatchScore, "Match score")
	mismatchPen = flag.Int("b", mapper.DefaultOptions().MismatchPen, "Mismatch penalty")
	gapOpen     = flag.Int("q", mapper.DefaultOptions().GapOpen, "Gap open penalty")
	gapExtend   = flag.Int("e", mapper.DefaultOptions().GapExtend, "Gap extend penalty")
	gapOpen2    = flag.Int("q2", mapper.DefaultOptions().GapOpen2, "Long-gap open penalty")
	gapExtend2  = flag.Int("e2", mapper.DefaultOptions().GapExtend2, "Long-gap extend penalty")
	zdrop       = flag.Int("zdrop", mapper.DefaultOptions().ZDrop, "Z-drop threshold for bad extensions")
	minDPMax    = flag.Int("min-dp-max", mapper.DefaultOptions().MinDPMax, "Minimum chain DP score to invoke the aligner")
	minKSWLen   = flag.Int("min-ksw-len", mapper.DefaultOptions().MinKSWLen, "Minimum chain span to invoke full KSW extension")

	noSelf  = flag.Bool("no-self", false, "Drop anchors on the query/target self diagonal")
	ava     = flag.Bool("ava", false, "All-vs-all mode: report overlaps, skip primary/secondary selection")
	cigar   = flag.Bool("cigar", false, "Invoke the aligner and attach a CIGAR string to each mapping record")
	extEnd  = flag.Bool("ext-end", false, "Invoke the aligner to refine mapping quality without computing a full CIGAR")
	outSAM  = flag.Bool("out-sam", false, "Write SAM instead of PAF")
	noQual  = flag.Bool("no-qual", false, "Omit base qualities from SAM output")
)

func bioMapUsage() {
	fmt.Printf("Usage: %s -index IDX -query QUERY [OPTIONS]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func optionsFromFlags() mapper.Options {
	opts := mapper.DefaultOptions()
	opts.MaxOccFrac = *maxOccFrac
	opts.MidOccFrac = *midOccFrac
	opts.SdustThres = *sdustThres
	opts.MinCnt = *minCnt
	opts.MinChainScore = *minChainScore
	opts.Bw = *bw
	opts.MaxGap = *maxGap
	opts.MaxChainSkip = *maxChainSkip
	opts.MaskLevel = *maskLevel
	opts.PriRatio = *priRatio
	opts.BestN = *bestN
	opts.MaxJoinLong = *maxJoinLong
	opts.MaxJoinShort = *maxJoinShort
	opts.MinJoinFlankSc = *minJoinFlankSc
	opts.MatchScore = *matchScore
	opts.MismatchPen = *mismatchPen
	opts.GapOpen = *gapOpen
	opts.GapExtend = *gapExtend
	opts.GapOpen2 = *gapOpen2
	opts.GapExtend2 = *gapExtend2
	opts.ZDrop = *zdrop
	opts.MinDPMax = *minDPMax
	opts.MinKSWLen = *minKSWLen
	opts.MiniBatchSize = *miniBatchSize
	opts.NThreads = *nThreads

	var flags mapper.Flag
	if *noSelf {
		flags |= mapper.NoSelf
	}
	if *ava {
		flags |= mapper.AVA
	}
	if *cigar {
		flags |= mapper.CIGAR
	}
	if *extEnd {
		flags |= mapper.ExtEnd
	}
	if *outSAM {
		flags |= mapper.OutSAM
	}
	if *noQual {
		flags |= mapper.NoQual
	}
	opts.Flags = flags
	return opts
}

func openQueryReader(ctx context.Context) (pipeline.Reader, func(), error) {
	var r io.Reader = os.Stdin
	closeFn := func() {}
	if *queryPath != "" && *queryPath != "-" {
		f, err := file.Open(ctx, *queryPath)
		if err != nil {
			return nil, nil, err
		}
		r = f.Reader(ctx)
		closeFn = func() {
			if err := f.Close(ctx); err != nil {
				log.Error.Printf("close %s: %v", *queryPath, err)
			}
		}
	}
	if *fastq {
		return seqio.NewFASTQReader(r), closeFn, nil
	}
	return seqio.NewFASTAReader(r), closeFn, nil
}

func main() {
	flag.Usage = bioMapUsage
	shutdown := grail.Init()
	defer shutdown()

	if *indexPath == "" {
		log.Fatalf("-index is required")
	}
	ctx := vcontext.Background()

	idxFile, err := file.Open(ctx, *indexPath)
	if err != nil {
		log.Fatalf("open index %s: %v", *indexPath, err)
	}
	idx, err := memindex.Load(idxFile.Reader(ctx))
	if err != nil {
		log.Fatalf("load index %s: %v", *indexPath, err)
	}
	if err := idxFile.Close(ctx); err != nil {
		log.Error.Printf("close %s: %v", *indexPath, err)
	}

	qr, closeQR, err := openQueryReader(ctx)
	if err != nil {
		log.Fatalf("open query %s: %v", *queryPath, err)
	}
	defer closeQR()

	var outStream io.Writer = os.Stdout
	var closeOut func()
	if *outPath != "" {
		out, err := file.Create(ctx, *outPath)
		if err != nil {
			log.Fatalf("create output %s: %v", *outPath, err)
		}
		outStream = out.Writer(ctx)
		closeOut = func() {
			if err := out.Close(ctx); err != nil {
				log.Fatalf("close %s: %v", *outPath, err)
			}
		}
	}

	opts := optionsFromFlags()

	var aligner align.Aligner
	if opts.Flags.Has(mapper.CIGAR) || opts.Flags.Has(mapper.ExtEnd) {
		aligner = align.Passthrough{}
	}

	qp := &query.Pipeline{
		Index:      idx,
		Sketcher:   sketch.FarmSketcher{},
		LCDetector: lcmask.SDUST{},
		Aligner:    aligner,
		Options:    opts,
	}

	var writer pipeline.Writer
	if opts.Flags.Has(mapper.OutSAM) {
		refs := make([]*sam.Reference, idx.NumRefs())
		for i := range refs {
			ref, err := sam.NewReference(idx.RefName(int32(i)), "", "", int(idx.RefLen(int32(i))), nil, nil)
			if err != nil {
				log.Fatalf("build SAM reference %d: %v", i, err)
			}
			refs[i] = ref
		}
		sw, err := mapout.NewSAMWriter(outStream, idx, refs, opts.Flags)
		if err != nil {
			log.Fatalf("build SAM writer: %v", err)
		}
		writer = sw
	} else {
		writer = mapout.NewPAFWriter(outStream, idx)
	}

	bp := &pipeline.BatchPipeline{
		Reader:    qr,
		Writer:    writer,
		Pipeline:  qp,
		NThreads:  *nThreads,
		BatchSize: *miniBatchSize,
	}

	if *debugLog != "" {
		logFile, err := file.Create(ctx, *debugLog)
		if err != nil {
			log.Fatalf("create debug log %s: %v", *debugLog, err)
		}
		defer func() {
			if err := logFile.Close(ctx); err != nil {
				log.Error.Printf("close %s: %v", *debugLog, err)
			}
		}()
		bp.DebugLog = mapperpb.NewLogWriter(logFile.Writer(ctx))
	}

	if err := bp.Run(ctx); err != nil {
		log.Panicf("%v", err)
	}
	if closeOut != nil {
		closeOut()
	}
	log.Debug.Printf("exiting")
}
