// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

// resolverJS picks the element a locator addresses. Role locators arrive
// with their candidates already computed from Chrome's accessibility tree as
// extra arguments; text and CSS locators are matched against the live DOM
// here. Previous marks are cleared and the chosen element is marked with
// spec.attr so that a follow-up action can address it with a plain CSS
// selector.
//
// Result: {status, count, error}
//   - "ok":        an element is chosen and marked with spec.token
//   - "none":      nothing visible matched
//   - "ambiguous": several visible matches and no nth
//   - "invalid":   the CSS selector does not parse
const resolverJS = `function(spec, ...candidates) {
	const norm = s => (s || '').replace(/\s+/g, ' ').trim();
	const visible = el => {
		const style = window.getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
	};
	const matches = (actual, want, exact) => exact ? actual === norm(want) : actual.toLowerCase().includes(norm(want).toLowerCase());
	const textOf = el => norm(el.innerText !== undefined ? el.innerText : el.textContent);
	const skip = ['HTML', 'HEAD', 'SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE', 'TITLE'];

	document.querySelectorAll('[' + spec.attr + ']').forEach(el => el.removeAttribute(spec.attr));

	let found = [];
	try {
		if (spec.kind === 'role') {
			found = candidates.filter(el => el instanceof Element);
		} else if (spec.kind === 'text') {
			const hits = Array.from(document.querySelectorAll('*')).filter(el =>
				!skip.includes(el.tagName) && matches(textOf(el), spec.text, spec.exact));
			found = hits.filter(el => !hits.some(other => other !== el && el.contains(other)));
		} else {
			found = Array.from(document.querySelectorAll(spec.css));
			if (spec.hasText !== '') {
				found = found.filter(el => matches(textOf(el), spec.hasText, false));
			}
		}
	} catch (e) {
		return {status: 'invalid', count: 0, error: String(e)};
	}

	let chosen = null;
	if (spec.nth >= 0) {
		const el = found[spec.nth];
		if (el && visible(el)) chosen = el;
	} else {
		const shown = found.filter(visible);
		if (shown.length > 1 && spec.unique) {
			return {status: 'ambiguous', count: shown.length, error: ''};
		}
		if (shown.length > 0) chosen = shown[0];
	}
	if (!chosen) {
		return {status: 'none', count: found.length, error: ''};
	}
	chosen.setAttribute(spec.attr, spec.token);
	return {status: 'ok', count: found.length, error: ''};
}`

// selectJS sets the value of the marked <select> and fires the events
// frameworks listen to.
//
// Result: "ok", "missing", "not-select" or "no-option".
const selectJS = `(function(sel, want) {
	const el = document.querySelector(sel);
	if (!el) return 'missing';
	if (el.tagName !== 'SELECT') return 'not-select';
	const options = Array.from(el.options);
	const opt = options.find(o => o.value === want) ||
		options.find(o => o.label.trim() === want || o.text.trim() === want);
	if (!opt) return 'no-option';
	const setter = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, 'value').set;
	setter.call(el, opt.value);
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return 'ok';
})`
