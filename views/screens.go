package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/experiment"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// SubjectEntry is the experimenter's screen for starting a session.
func SubjectEntry(csrfToken, errMsg, lastFile string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="subject"><h1>Confirmation bias study</h1>`)
		if lastFile != "" {
			p.raw(`<p class="saved">Last session saved to <code>`)
			p.text(lastFile)
			p.raw(`</code></p>`)
		}
		if errMsg != "" {
			p.raw(`<p class="error">`)
			p.text(errMsg)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="/subject">`)
		p.csrf(csrfToken)
		p.raw(`<label for="subject">Subject number</label>`)
		p.raw(`<input id="subject" name="subject" required maxlength="32" pattern="[A-Za-z0-9_-]+" autofocus>`)
		p.raw(`<button type="submit">Start</button></form></section>`)
		return p.err
	})
}

// Transition is the blank screen shown between two screens.
func Transition(v experiment.View) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.refresh(v.Remaining, "/next")
		p.raw(`<section class="transition"><p>+</p>`)
		if v.Remaining <= 0 {
			p.raw(`<a href="/next">Continue</a>`)
		}
		p.raw(`</section>`)
		return p.err
	})
}

func continueForm(p *printer, action, csrfToken string) {
	p.raw(`<form method="post" action="%s">`, templ.EscapeString(action))
	p.csrf(csrfToken)
	p.raw(`<button type="submit" data-key=" ">Press SPACE to continue</button></form>`)
}

// Instructions explains phase 1.
func Instructions(csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="instructions"><h1>Part 1</h1>`)
		p.raw(`<p>You will read a series of statements. Rate how much you agree with each one, from 1 (strongly disagree) to 5 (strongly agree).</p>`)
		p.raw(`<p>After some statements you will be asked whether a word appeared in it. Answer YES or NO.</p>`)
		continueForm(p, "/instructions", csrfToken)
		p.raw(`</section>`)
		return p.err
	})
}

// ArticleInstructions explains phase 2.
func ArticleInstructions(csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="instructions"><h1>Part 2</h1>`)
		p.raw(`<p>Choose a topic, then choose an article to read. Read at least two articles in each of five topics.</p>`)
		p.raw(`<p>After a while you will be asked how far the article aligns with your beliefs, followed by a short question about its content.</p>`)
		continueForm(p, "/articles/instructions", csrfToken)
		p.raw(`</section>`)
		return p.err
	})
}

func scaleForm(p *printer, action, csrfToken string, scale []models.Option) {
	if len(scale) == 0 {
		scale = models.DefaultScale
	}
	p.raw(`<form method="post" action="%s" class="scale">`, templ.EscapeString(action))
	p.csrf(csrfToken)
	for _, o := range scale {
		p.raw(`<button type="submit" name="option" value="%s" data-key="%s">`, templ.EscapeString(o.Value), templ.EscapeString(o.Value))
		p.text(o.Value)
		p.raw(`<small>`)
		p.text(o.Label)
		p.raw(`</small></button>`)
	}
	p.raw(`</form>`)
}

func attentionForm(p *printer, action, csrfToken, word, subject string) {
	p.raw(`<section class="attention"><p>Did the %s mention the word: <strong>`, subject)
	p.text(word)
	p.raw(`</strong>?</p><form method="post" action="%s" class="yesno">`, templ.EscapeString(action))
	p.csrf(csrfToken)
	p.raw(`<button type="submit" name="answer" value="NO" data-key="ArrowLeft">&larr; NO</button>`)
	p.raw(`<button type="submit" name="answer" value="YES" data-key="ArrowRight">YES &rarr;</button>`)
	p.raw(`</form></section>`)
}

// Statement shows a phase-1 statement or its attention check.
func Statement(v experiment.View, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.refresh(v.Remaining, "/statements")
		if v.Statement == nil {
			p.raw(`<p class="message">No statement to show.</p>`)
			return p.err
		}
		if v.Attention {
			attentionForm(p, "/statements/attention", csrfToken, v.AttentionWord, "statement")
			return p.err
		}
		p.raw(`<section class="statement"><p class="progress">%d / %d</p><blockquote>`, v.StatementNumber, v.StatementTotal)
		p.text(v.Statement.Text)
		p.raw(`</blockquote>`)
		scaleForm(p, "/statements/rate", csrfToken, v.Scale)
		p.raw(`</section>`)
		return p.err
	})
}

// Topics lists the topics with the participant's progress.
func Topics(v experiment.View, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="topics"><h1>Choose a topic</h1><p>Articles read: %d</p>`, v.TotalUnique)
		p.raw(`<form method="post" action="/topics"><ul>`)
		p.csrf(csrfToken)
		for _, t := range v.Topics {
			class := ""
			if t.Completed {
				class = ` class="completed"`
			}
			p.raw(`<li%s><button type="submit" name="topic" value="%s">`, class, templ.EscapeString(t.Name))
			p.text(t.Name)
			p.raw(`</button> <span>%d read</span></li>`, t.Read)
		}
		p.raw(`</ul></form></section>`)
		return p.err
	})
}

// Articles lists the unread articles of a topic.
func Articles(v experiment.View, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="articles"><h1>`)
		p.text(v.Topic)
		p.raw(`</h1>`)
		if v.LoadError != "" {
			p.raw(`<p class="error">`)
			p.text(v.LoadError)
			p.raw(`</p>`)
		} else if len(v.Articles) == 0 {
			p.raw(`<p class="message">You have read every article in this topic.</p>`)
		}
		p.raw(`<form method="post" action="/articles/open"><ul>`)
		p.csrf(csrfToken)
		for _, a := range v.Articles {
			p.raw(`<li><button type="submit" name="headline" value="%s"><strong>`, templ.EscapeString(a.Headline))
			p.text(a.Headline)
			p.raw(`</strong><span>`)
			p.text(a.Summary)
			p.raw(`</span></button></li>`)
		}
		p.raw(`</ul></form><form method="post" action="/topics/back">`)
		p.csrf(csrfToken)
		p.raw(`<button type="submit" data-key="Escape">Back to topics</button></form></section>`)
		return p.err
	})
}

// scrollScript reports the reading position of #article-content, 1 at the
// top and 0 at the bottom.
const scrollScript = `(function(){var el=document.getElementById('article-content');if(!el){return;}
var token=document.querySelector('meta[name="csrf-token"]').content;var pending=false;
el.addEventListener('scroll',function(){if(pending){return;}pending=true;setTimeout(function(){pending=false;
var range=el.scrollHeight-el.clientHeight;var pos=range>0?1-el.scrollTop/range:0;
fetch('/article/scroll',{method:'POST',headers:{'X-CSRF-Token':token,'Content-Type':'application/x-www-form-urlencoded'},body:'position='+pos.toFixed(3)});},200);});})();`

// Article is the article viewer with its delayed agreement prompt and the
// attention check that follows the rating.
func Article(v experiment.View, csrfToken, nonce string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.refresh(v.Remaining, "/article")
		if v.Article == nil {
			p.raw(`<p class="message">Please go back and choose an article.</p>`)
			return p.err
		}
		if v.Attention {
			attentionForm(p, "/article/attention", csrfToken, v.AttentionWord, "article")
			return p.err
		}
		p.raw(`<article><h1>`)
		p.text(v.Article.Headline)
		p.raw(`</h1><div id="article-content" class="content">`)
		for _, para := range strings.Split(v.Article.Content, "\n\n") {
			if strings.TrimSpace(para) == "" {
				continue
			}
			p.raw(`<p>`)
			p.text(para)
			p.raw(`</p>`)
		}
		p.raw(`</div></article>`)
		if v.PromptShown {
			p.raw(`<section class="prompt"><p>To what extent does the article align with your pre-existing beliefs or expectations?</p>`)
			scaleForm(p, "/article/rate", csrfToken, v.Scale)
			p.raw(`</section>`)
		}
		p.raw(`<script nonce="%s">%s</script>`, templ.EscapeString(nonce), scrollScript)
		return p.err
	})
}

// Break is the rest break. The final break offers more reading or the end.
func Break(v experiment.View, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="break"><h1>Take a short break</h1>`)
		p.raw(`<form method="post" action="/break">`)
		p.csrf(csrfToken)
		if v.FinalBreak {
			p.raw(`<p>You have read %d articles and completed the minimum reading. You may continue reading or finish.</p>`, v.TotalUnique)
			p.raw(`<button type="submit" name="choice" value="%s" data-key="ArrowLeft">&larr; Read more topics</button>`, experiment.BreakMoreTopics)
			p.raw(`<button type="submit" name="choice" value="%s" data-key="ArrowRight">Finish &rarr;</button>`, experiment.BreakEnd)
		} else {
			p.raw(`<p>Relax for a moment. Continue when you are ready.</p>`)
			p.raw(`<button type="submit" name="choice" value="%s" data-key=" ">Press SPACE to continue</button>`, experiment.BreakContinue)
		}
		p.raw(`</form></section>`)
		return p.err
	})
}

// Survey asks for age and feedback.
func Survey(csrfToken, errMsg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="survey"><h1>Almost done</h1>`)
		if errMsg != "" {
			p.raw(`<p class="error">`)
			p.text(errMsg)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="/survey">`)
		p.csrf(csrfToken)
		p.raw(`<label for="age">Age</label><input id="age" name="age" inputmode="numeric" required>`)
		p.raw(`<label for="feedback">Any comments about the study?</label><textarea id="feedback" name="feedback" rows="4"></textarea>`)
		p.raw(`<button type="submit">Submit</button></form></section>`)
		return p.err
	})
}

// ThankYou ends the session; its exit button finalizes the data.
func ThankYou(csrfToken, errMsg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="thankyou"><h1>Thank you for taking part</h1>`)
		if errMsg != "" {
			p.raw(`<p class="error">`)
			p.text(errMsg)
			p.raw(`</p>`)
		}
		p.raw(`<p>Please let the experimenter know you have finished.</p>`)
		p.raw(`<form method="post" action="/thankyou">`)
		p.csrf(csrfToken)
		p.raw(`<button type="submit" data-key="Escape">Exit</button></form></section>`)
		return p.err
	})
}

// Login is the experimenter passcode form.
func Login(csrfToken, errMsg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="login"><h1>Experimenter login</h1>`)
		if errMsg != "" {
			p.raw(`<p class="error">`)
			p.text(errMsg)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="/experimenter/login">`)
		p.csrf(csrfToken)
		p.raw(`<label for="passcode">Passcode</label><input id="passcode" name="passcode" type="password" required autofocus>`)
		p.raw(`<button type="submit">Log in</button></form></section>`)
		return p.err
	})
}
