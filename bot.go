// Package icefall is an artificial player for guideline falling-block
// stacking games. A Bot runs a concurrent best-first search over
// possible placements in background workers, ingests incremental game
// state updates, and publishes moves on demand.
package icefall

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/icefall/eval"
	"github.com/icefall/search"
	"github.com/icefall/tetris"
)

var log = logging.MustGetLogger("icefall.bot")

// Bot is a long-lived background player. All mutating operations are
// serialized in submission order through a controller goroutine; the
// workers share the search tree with it.
type Bot struct {
	opts Options
	tree *search.Tree

	cmds chan command
	stop chan struct{}
	g    errgroup.Group

	idle int32 // workers currently parked

	mu        sync.Mutex
	cond      *sync.Cond
	kick      uint64 // bumped whenever parked workers should recheck
	published *Move
	dead      bool
	closed    bool

	// controller-owned request state
	pending    bool
	reqMin     int
	reqMax     int
	lastExp    int
	stallTicks int
	destroys   sync.Once
	joinErr    error
}

type command struct {
	run   func() error
	reply chan error
}

// Launch starts a bot over a blank board, an empty queue, and a full
// bag.
func Launch(opts Options, weights eval.Weights) (*Bot, error) {
	return launch(opts, weights, search.Snapshot{Bag: tetris.FullBag, Hold: tetris.NoPiece})
}

// LaunchWithBoard starts a bot from mid-game state: a 400-cell
// row-major field with index 0 at the bottom left, the bag residue for
// the next reveal, an optional hold piece, and the streak counters.
func LaunchWithBoard(opts Options, weights eval.Weights, field *[tetris.Width * tetris.VisibleHeight]bool, bag tetris.Bag, hold tetris.Piece, b2b bool, combo uint32) (*Bot, error) {
	if bag == 0 || bag > tetris.FullBag {
		return nil, errors.Wrapf(ErrInvalidArgument, "bag mask %#x", bag)
	}
	if hold != tetris.NoPiece && hold >= tetris.PieceCount {
		return nil, errors.Wrapf(ErrInvalidArgument, "hold piece %d", hold)
	}
	return launch(opts, weights, search.Snapshot{
		Board: tetris.FromField(field),
		Hold:  hold,
		B2B:   b2b,
		Combo: combo,
		Bag:   bag,
	})
}

func launch(opts Options, weights eval.Weights, snap search.Snapshot) (*Bot, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}

	cfg := search.Config{
		Mode:       opts.Mode,
		SpawnRule:  opts.SpawnRule,
		UseHold:    opts.UseHold,
		Speculate:  opts.Speculate,
		PCPriority: opts.PCPriority,
		MaxNodes:   opts.MaxNodes,
	}
	b := &Bot{
		opts: opts,
		tree: search.NewTree(cfg, eval.New(weights), snap),
		cmds: make(chan command, 16),
		stop: make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)

	b.g.Go(b.controller)
	for i := 0; i < opts.Threads; i++ {
		b.g.Go(b.worker)
	}
	return b, nil
}

// AddNextPiece appends a revealed piece to the end of the queue. While
// speculation is on, a piece the bag cannot produce is rejected with
// ErrUnsatisfiableQueue and the caller must reset.
func (b *Bot) AddNextPiece(p tetris.Piece) error {
	if p >= tetris.PieceCount {
		return errors.Wrapf(ErrInvalidArgument, "piece %d", p)
	}
	return b.submit(func() error {
		if err := b.tree.AddPiece(p, b.opts.Speculate); err != nil {
			return errors.Wrap(ErrUnsatisfiableQueue, err.Error())
		}
		b.kickWorkers()
		b.maybePublish()
		return nil
	})
}

// RequestNextMove asks for a move as soon as the thinking floor allows,
// recording the garbage lines currently queued against the bot.
func (b *Bot) RequestNextMove(incomingGarbage int32) error {
	return b.submit(func() error {
		b.tree.SetIncoming(incomingGarbage)
		b.pending = true
		b.reqMin = b.opts.MinNodes
		b.reqMax = b.opts.MaxNodes
		b.kickWorkers()
		b.maybePublish()
		return nil
	})
}

// Reset replaces the playfield, back-to-back status, and combo count,
// throwing away previous computation. The known queue survives. Reset
// is also the only way out of the dead state short of destroying the
// bot.
func (b *Bot) Reset(field *[tetris.Width * tetris.VisibleHeight]bool, b2b bool, combo uint32) error {
	board := tetris.FromField(field)
	return b.submit(func() error {
		b.tree.Reset(board, b2b, combo)
		b.mu.Lock()
		b.dead = false
		b.published = nil
		b.mu.Unlock()
		b.kickWorkers()
		return nil
	})
}

// PollNextMove returns the published move if one is ready. It never
// blocks beyond a brief critical section.
func (b *Bot) PollNextMove() (*Move, Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dead {
		return nil, Dead
	}
	if b.published != nil {
		m := b.published
		b.published = nil
		return m, MoveProvided
	}
	return nil, Waiting
}

// BlockNextMove waits until a move is published or the bot dies.
func (b *Bot) BlockNextMove() (*Move, Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if b.dead {
			return nil, Dead
		}
		if b.published != nil {
			m := b.published
			b.published = nil
			return m, MoveProvided
		}
		if b.closed {
			return nil, Dead
		}
		b.cond.Wait()
	}
}

// DumpTree writes a Graphviz snapshot of the live search tree.
func (b *Bot) DumpTree(w io.Writer, maxDepth int) error {
	return b.tree.DumpDOT(w, maxDepth)
}

// Destroy stops the workers and joins them. Further operations report
// ErrDead.
func (b *Bot) Destroy() error {
	b.destroys.Do(func() {
		close(b.stop)
		b.mu.Lock()
		b.closed = true
		b.dead = true
		b.mu.Unlock()
		b.cond.Broadcast()

		var errs *multierror.Error
		if err := b.g.Wait(); err != nil {
			errs = multierror.Append(errs, err)
		}
		// Drain commands that raced with shutdown.
		for {
			select {
			case cmd := <-b.cmds:
				cmd.reply <- ErrDead
			default:
				b.joinErr = errs.ErrorOrNil()
				return
			}
		}
	})
	return b.joinErr
}

// submit runs fn on the controller goroutine and waits for its result.
func (b *Bot) submit(fn func() error) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrDead
	}
	cmd := command{run: fn, reply: make(chan error, 1)}
	select {
	case b.cmds <- cmd:
	case <-b.stop:
		return ErrDead
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-b.stop:
		return ErrDead
	}
}

// controller consumes facade commands and expansion pulses, enforcing
// the thinking budget and publishing moves.
func (b *Bot) controller() error {
	ticks := b.tree.Pulse()
	for {
		select {
		case <-b.stop:
			return nil
		case cmd := <-b.cmds:
			cmd.reply <- cmd.run()
		case <-ticks:
			b.maybePublish()
		}
	}
}

// maybePublish publishes a move for the pending request when the budget
// allows: at least MinNodes expansions, or MaxNodes reached, or the
// workers cannot grow the tree any further.
func (b *Bot) maybePublish() {
	if !b.pending {
		return
	}
	if b.tree.Dead() {
		b.markDead(nil)
		return
	}
	exp := int(b.tree.Expansions())
	if exp < b.reqMin && exp < b.reqMax {
		// Publish below the floor only when the workers are parked and
		// several pulses pass without growth: the tree cannot get any
		// bigger with what the bot knows.
		stalled := atomic.LoadInt32(&b.idle) >= int32(b.opts.Threads)
		if !stalled || exp != b.lastExp {
			b.lastExp = exp
			b.stallTicks = 0
			return
		}
		b.stallTicks++
		if b.stallTicks < 3 {
			// Parked workers pulse once per park; re-kick them so a
			// frontier that really is exhausted keeps pulsing until the
			// stall is confirmed.
			b.kickWorkers()
			return
		}
	}
	b.stallTicks = 0
	b.lastExp = 0

	info, ok := b.tree.ChooseMove()
	if !ok {
		// Not enough information yet: the root is unexpanded or the
		// next piece is unknown. The request stays armed.
		return
	}
	move := &Move{
		Hold:          info.UsedHold,
		ExpectedCells: info.Placement.Cells(),
		Movements:     info.Placement.Path,
		Nodes:         info.Nodes,
		Depth:         info.Depth,
		OriginalRank:  info.Rank,
	}
	for _, step := range info.Plan {
		move.Plan = append(move.Plan, PlanPlacement{
			Piece:         step.Placement.Kind,
			Tspin:         step.Placement.Tspin,
			ExpectedCells: step.Placement.Cells(),
			ClearedLines:  step.ClearedRows,
		})
	}
	b.pending = false

	b.mu.Lock()
	b.published = move
	b.mu.Unlock()
	b.kickWorkers()
	log.Debugf("published move: piece %s hold=%t nodes=%d depth=%d",
		move.Plan0Piece(), move.Hold, move.Nodes, move.Depth)
}

// markDead records search death or a worker crash.
func (b *Bot) markDead(err error) {
	if err != nil {
		log.Errorf("worker crash: %+v", err)
	}
	b.pending = false
	b.mu.Lock()
	b.dead = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// kickWorkers wakes parked workers after the tree gained work.
func (b *Bot) kickWorkers() {
	b.mu.Lock()
	b.kick++
	b.mu.Unlock()
	b.cond.Broadcast()
}

// parkWorker blocks until the next kick or shutdown.
func (b *Bot) parkWorker() {
	atomic.AddInt32(&b.idle, 1)
	b.tree.Nudge()
	b.mu.Lock()
	gen := b.kick
	for b.kick == gen && !b.closed {
		b.cond.Wait()
	}
	b.mu.Unlock()
	atomic.AddInt32(&b.idle, -1)
}

// worker runs think cycles until shutdown. A panic inside the engine is
// treated like search death and reported out-of-band.
func (b *Bot) worker() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("worker panic: %v", r)
			b.submitCrash(err)
		}
	}()

	retries := 0
	for {
		select {
		case <-b.stop:
			return nil
		default:
		}

		switch b.tree.Step() {
		case search.StepExpanded:
			retries = 0
			b.tree.Nudge()
		case search.StepRetry:
			retries++
			if retries > 256 {
				retries = 0
				b.parkWorker()
			} else {
				runtime.Gosched()
			}
		case search.StepBlocked, search.StepSaturated, search.StepDead:
			retries = 0
			b.parkWorker()
		case search.StepStale:
			retries = 0
		}
	}
}

// submitCrash routes a worker failure to the controller without
// blocking shutdown.
func (b *Bot) submitCrash(err error) {
	cmd := command{run: func() error { b.markDead(err); return nil }, reply: make(chan error, 1)}
	select {
	case b.cmds <- cmd:
	case <-b.stop:
	}
}

// Plan0Piece names the first planned piece for logging; "-" when the
// plan is empty.
func (m *Move) Plan0Piece() string {
	if len(m.Plan) == 0 {
		return "-"
	}
	return m.Plan[0].Piece.String()
}
