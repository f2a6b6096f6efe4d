package conversation

import (
	"browser_agent/application/command"
	"fmt"
)

const systemPrompt = `You are an agent controlling a browser. You are given an objective that you are trying to achieve, the URL of the current website, and a simplified markup description of the page contents, which looks like this:
<p id=0>text</p>
<link id=1 href="link url">text</link>
<button id=2>text</button>
<input id=3>placeholder</input>
<img id=4 alt="image description"/>

You must respond with ONLY one of the following commands AND NOTHING ELSE:
` + command.Grammar

func userPrompt(goal, currentURL, summary string) string {
	return fmt.Sprintf(
		"OBJECTIVE: %s\nCURRENT URL: %s\nPAGE CONTENT: %s. Remember to ONLY respond in the format of CLICK, TYPE, or ANSWER!",
		goal, currentURL, summary,
	)
}
