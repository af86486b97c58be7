package director

import (
	"github.com/zeusync/playscript/internal/core/command/dispatch"
	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/command/schema"
	"github.com/zeusync/playscript/internal/core/observability/log"
	"github.com/zeusync/playscript/internal/core/stage"
)

func (c *Controller) handlers() map[string]dispatch.Handler {
	return map[string]dispatch.Handler{
		"entry":                         c.entry,
		"talk":                          c.talk,
		"hideSubtitle":                  c.hideSubtitle,
		"mute":                          c.mute,
		"changeEmotion":                 c.changeEmotion,
		"direction":                     c.direction,
		"rotation":                      c.rotation,
		"anime":                         c.anime,
		"flip":                          c.flip,
		"particularPosition":            c.particularPosition,
		"position":                      c.position,
		"particularMove":                c.particularMove,
		"move":                          c.move,
		"wait":                          c.wait,
		"waitTalkEnd":                   c.waitTalkEnd,
		"Leave":                         c.leave,
		"giant":                         c.giant,
		"returnSize":                    c.returnSize,
		"returnSizeAtPartiularPosition": c.returnSizeAtParticularPosition,
		"changeBBActive":                c.changeBBActive,
		"writeBB":                       c.writeBB,
		"changeBG":                      c.changeBG,
		"fadeIn":                        c.fadeIn,
		"fadeOut":                       c.fadeOut,
		"ending":                        c.ending,
		"hide":                          c.hide,
		"show":                          c.show,
		"firstPriority":                 c.firstPriority,
		"endBGM":                        c.endBGM,
		"stopTalk":                      c.stopTalk,
		"changeInterval":                c.changeInterval,
		"changeBGM":                     c.changeBGM,
	}
}

// missing reports a parameter the schema did not deliver in the expected
// type, which means the schema and the handler disagree.
func (c *Controller) missing(s *schema.CommandSchema) bool {
	c.logger.Warn("command missing required parameters",
		log.Command(s.CommandName()),
		log.Index(c.index()),
	)
	return false
}

// check logs a collaborator failure and turns it into the handler result.
func (c *Controller) check(s *schema.CommandSchema, err error) bool {
	if err == nil {
		return true
	}
	c.stageFailed(s, err)
	return false
}

func (c *Controller) stageFailed(s *schema.CommandSchema, err error) {
	c.logger.Warn("command failed on stage",
		log.Command(s.CommandName()),
		log.Index(c.index()),
		log.Error(err),
	)
}

// slots reads the particular* parameter block.
func slots(p param.Values) (h param.Enum, hs int, v param.Enum, vs int, ok bool) {
	var ok1, ok2, ok3, ok4 bool
	h, ok1 = p.Enum("horizontalSlot")
	hs, ok2 = p.Int("horizontalSlide")
	v, ok3 = p.Enum("verticalSlot")
	vs, ok4 = p.Int("verticalSlide")
	return h, hs, v, vs, ok1 && ok2 && ok3 && ok4
}

func (c *Controller) entry(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	slot, ok2 := p.Enum("horizontalSlot")
	slide, ok3 := p.Int("slide")
	if !ok1 || !ok2 || !ok3 {
		return c.missing(s)
	}
	pos := param.Vector2{X: c.sideX(slot.Name) + c.layout.SideSlideX*float64(slide), Y: c.layout.Ground}
	if err := c.stage.Cast.SetPosition(target, pos); err != nil {
		return c.check(s, err)
	}
	if err := c.stage.Cast.SetActive(target, true); err != nil {
		return c.check(s, err)
	}
	if err := c.bringToFront(target); err != nil {
		return c.check(s, err)
	}
	return c.check(s, c.stage.Cast.TriggerAnimation(target, "Entry"))
}

func (c *Controller) talk(p param.Values, s *schema.CommandSchema) bool {
	if c.index() < c.stopMute {
		return true
	}
	speaker, ok1 := p.String("characterName")
	file, ok2 := p.String("fileName")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	subtitle, _ := p.String("subtitle")
	emotion, _ := p.String("emotion")
	replace, ok := p.Bool("isNewText")
	if !ok {
		replace = true
	}
	return c.speak(s, speaker, file, subtitle, emotion, replace)
}

// speak plays the voice line and waits for it plus the talk interval. This
// wait replaces any declared wait on the record.
func (c *Controller) speak(s *schema.CommandSchema, speaker, file, subtitle, emotion string, replace bool) bool {
	voice, err := c.stage.Audio.PlayVoice(file)
	if err != nil {
		c.logger.Error("voice line not played",
			log.Command(s.CommandName()),
			log.Index(c.index()),
			log.String("clip", file),
			log.Error(err),
		)
		return false
	}
	length := voice.Duration + c.interval

	// The line is already playing, so cast failures are reported but the
	// record still succeeds.
	if c.stage.Cast.Has(speaker) {
		if err := c.stage.Cast.StartTalking(speaker, voice.Duration); err != nil {
			c.stageFailed(s, err)
		}
		c.stage.Board.ShowLine(speaker, subtitle, replace)
		if emotion != "" {
			if err := c.stage.Cast.SetEmotion(speaker, emotion, true); err != nil {
				c.stageFailed(s, err)
			}
		}
	}

	c.talkTimer = length
	c.sched.Wait(length)
	return true
}

func (c *Controller) hideSubtitle(param.Values, *schema.CommandSchema) bool {
	c.stage.Board.HideSubtitles()
	return true
}

// mute stops the voice but leaves the countdown sized to it.
func (c *Controller) mute(param.Values, *schema.CommandSchema) bool {
	c.stage.Audio.StopVoice()
	return true
}

func (c *Controller) changeEmotion(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	emotion, ok2 := p.String("emotion")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	keep, ok := p.Bool("keep")
	if !ok {
		keep = true
	}
	return c.check(s, c.stage.Cast.SetEmotion(target, emotion, keep))
}

func (c *Controller) direction(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	angle, ok2 := p.Float("direction")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.SetDirection(target, angle))
}

func (c *Controller) rotation(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	angle, ok2 := p.Float("direction")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.SetRotation(target, angle))
}

func (c *Controller) anime(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	trigger, ok2 := p.String("animeName")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.TriggerAnimation(target, trigger))
}

func (c *Controller) flip(p param.Values, s *schema.CommandSchema) bool {
	target, ok := p.String("targetName")
	if !ok {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.Flip(target))
}

func (c *Controller) particularPosition(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	h, hs, v, vs, ok2 := slots(p)
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.SetPosition(target, c.particular(h, hs, v, vs)))
}

func (c *Controller) position(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	pos, ok2 := p.Vector2("position")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.SetPosition(target, pos))
}

func (c *Controller) particularMove(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	h, hs, v, vs, ok2 := slots(p)
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.MoveOverTime(target, c.particular(h, hs, v, vs), c.cfg.MoveDuration))
}

func (c *Controller) move(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	pos, ok2 := p.Vector2("position")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.MoveOverTime(target, pos, c.cfg.MoveDuration))
}

// wait does nothing itself; the scheduler applies the declared wait.
func (c *Controller) wait(param.Values, *schema.CommandSchema) bool { return true }

func (c *Controller) waitTalkEnd(param.Values, *schema.CommandSchema) bool {
	c.sched.Wait(c.talkTimer)
	return true
}

func (c *Controller) leave(p param.Values, s *schema.CommandSchema) bool {
	target, ok := p.String("targetName")
	if !ok {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.TriggerAnimation(target, "Leave"))
}

func (c *Controller) giant(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	slot, ok2 := p.Enum("horizontalSlot")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	pos := param.Vector2{X: c.layout.GiantLeft, Y: c.layout.GiantY}
	if slot.Name == SlotRight {
		pos.X = c.layout.GiantRight
	}
	if err := c.stage.Cast.SetPosition(target, pos); err != nil {
		return c.check(s, err)
	}
	return c.check(s, c.stage.Cast.SetScale(target, c.layout.GiantSize))
}

func (c *Controller) returnSize(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	pos, ok2 := p.Vector2("position")
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.restore(target, pos))
}

func (c *Controller) returnSizeAtParticularPosition(p param.Values, s *schema.CommandSchema) bool {
	target, ok1 := p.String("targetName")
	h, hs, v, vs, ok2 := slots(p)
	if !ok1 || !ok2 {
		return c.missing(s)
	}
	return c.check(s, c.restore(target, c.particular(h, hs, v, vs)))
}

func (c *Controller) restore(target string, pos param.Vector2) error {
	if err := c.stage.Cast.SetPosition(target, pos); err != nil {
		return err
	}
	return c.stage.Cast.SetScale(target, 1)
}

func (c *Controller) changeBBActive(param.Values, *schema.CommandSchema) bool {
	c.stage.Board.ToggleBlackboard()
	return true
}

func (c *Controller) writeBB(p param.Values, s *schema.CommandSchema) bool {
	text, ok := p.String("text")
	if !ok {
		return c.missing(s)
	}
	c.stage.Board.WriteBlackboard(text)
	return true
}

func (c *Controller) changeBG(p param.Values, s *schema.CommandSchema) bool {
	file, ok1 := p.String("fileName")
	size, ok2 := p.Vector2("size")
	pos, ok3 := p.Vector2("position")
	if !ok1 || !ok2 || !ok3 {
		return c.missing(s)
	}
	return c.check(s, c.stage.Board.SetBackground(stage.Background{Name: file, Size: size, Position: pos}))
}

func (c *Controller) fadeIn(p param.Values, s *schema.CommandSchema) bool {
	t, ok := p.Float("time")
	if !ok {
		return c.missing(s)
	}
	c.stage.Transition.FadeIn(t)
	return true
}

func (c *Controller) fadeOut(p param.Values, s *schema.CommandSchema) bool {
	t, ok := p.Float("time")
	if !ok {
		return c.missing(s)
	}
	c.stage.Transition.FadeOut(t)
	return true
}

func (c *Controller) ending(param.Values, *schema.CommandSchema) bool {
	c.sched.End()
	return true
}

func (c *Controller) hide(p param.Values, s *schema.CommandSchema) bool {
	target, ok := p.String("targetName")
	if !ok {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.SetVisible(target, false))
}

func (c *Controller) show(p param.Values, s *schema.CommandSchema) bool {
	target, ok := p.String("targetName")
	if !ok {
		return c.missing(s)
	}
	return c.check(s, c.stage.Cast.SetVisible(target, true))
}

func (c *Controller) firstPriority(p param.Values, s *schema.CommandSchema) bool {
	target, ok := p.String("targetName")
	if !ok {
		return c.missing(s)
	}
	return c.check(s, c.bringToFront(target))
}

func (c *Controller) endBGM(param.Values, *schema.CommandSchema) bool {
	c.stage.Audio.StopBGM()
	return true
}

// stopTalk mutes every talk record before the given index.
func (c *Controller) stopTalk(p param.Values, s *schema.CommandSchema) bool {
	idx, ok := p.Int("index")
	if !ok {
		return c.missing(s)
	}
	c.stopMute = idx
	return true
}

func (c *Controller) changeInterval(p param.Values, s *schema.CommandSchema) bool {
	interval, ok := p.Float("interval")
	if !ok {
		return c.missing(s)
	}
	c.interval = interval
	return true
}

func (c *Controller) changeBGM(p param.Values, s *schema.CommandSchema) bool {
	name, ok := p.String("bgmName")
	if !ok {
		return c.missing(s)
	}
	track := stage.Track{Name: name, LoopLength: -1, LoopEnd: -1}
	start, okStart := p.Int("loopStart")
	end, okEnd := p.Int("loopEnd")
	if okStart && okEnd {
		track.LoopLength = end - start
		track.LoopEnd = end
	}
	c.setupBGM(track)
	if credit, _ := p.String("credit"); credit != "" {
		c.stage.Board.ShowCredit(credit, c.cfg.CreditTime)
	}
	return true
}

func (c *Controller) setupBGM(track stage.Track) {
	if err := c.stage.Audio.PlayBGM(track); err != nil {
		c.logger.Error("bgm not played", log.String("clip", track.Name), log.Error(err))
		return
	}
	c.stage.Audio.SetBGMVolume(c.bgmVolume)
}
